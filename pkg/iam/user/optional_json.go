package user

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UnmarshalJSON is only called when the key is present, which is what
// separates absent from clear.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.clear = true
		o.value = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	o.clear = s == ""
	o.value = s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.present || o.clear {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

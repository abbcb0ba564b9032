package ptrx

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Clone returns a pointer to a copy of *p, or nil when p is nil.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Value returns *p, or the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// String returns a pointer value for the string value passed in.
func String(v string) *string { return &v }

// Bool returns a pointer value for the bool value passed in.
func Bool(v bool) *bool { return &v }

// NonEmpty returns nil for the empty string and a pointer otherwise.
func NonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

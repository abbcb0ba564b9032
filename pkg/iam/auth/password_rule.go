package auth

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MinPasswordLength = 8
	passwordSpecials  = "@$!%*?&"
)

var errWeakPassword = errors.New("password must contain uppercase, lowercase, number, and special character")

// StrongPassword requires at least eight characters with a lowercase and
// an uppercase letter, a digit and one of @$!%*?&.
var StrongPassword = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return CheckPasswordStrength(s)
})

func CheckPasswordStrength(s string) error {
	if len([]rune(s)) < MinPasswordLength {
		return errWeakPassword
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return errWeakPassword
	}
	return nil
}

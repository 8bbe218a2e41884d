package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lowercases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates email format and length using the RFC 5322 parser.
// Display-name forms such as "Bob <bob@example.com>" are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("is required")
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("is not a valid email address")
	}

	return nil
}

package validation

import (
	"errors"
	"strings"
)

const (
	PasswordMinLength = 6
	// bcrypt silently truncates anything longer
	PasswordMaxLength = 72
)

// ValidatePassword checks an already-trimmed plaintext password.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return errors.New("must be at least 6 characters")
	}

	if len(password) > PasswordMaxLength {
		return errors.New("must not exceed 72 characters")
	}

	if strings.Contains(password, "password") {
		return errors.New(`must not contain "password"`)
	}

	return nil
}

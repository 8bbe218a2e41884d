package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	NameMaxLength        = 100
	DescriptionMaxLength = 25
)

// Clean NFC-normalizes and trims user supplied text so that length limits
// count characters the way the user typed them.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ValidateName checks an already-cleaned user name.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("is required")
	}

	if utf8.RuneCountInString(name) > NameMaxLength {
		return errors.New("is too long (max 100 characters)")
	}

	return nil
}

// ValidateDescription checks an already-cleaned task description.
func ValidateDescription(description string) error {
	if description == "" {
		return errors.New("is required")
	}

	if utf8.RuneCountInString(description) > DescriptionMaxLength {
		return errors.New("is too long (max 25 characters)")
	}

	return nil
}

package validation

import "slices"

var (
	UserUpdatableFields = []string{"name", "age", "email", "password"}
	TaskUpdatableFields = []string{"description", "completed"}
)

// ValidateUpdate fails with *InvalidUpdateError when any requested field is
// not in allowed. An empty request is valid.
func ValidateUpdate(requested []string, allowed []string) error {
	for _, field := range requested {
		if !slices.Contains(allowed, field) {
			return &InvalidUpdateError{Allowed: slices.Clone(allowed)}
		}
	}
	return nil
}

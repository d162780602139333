package memorywall

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("memory not found")
	// ErrForbidden means the current session did not author the memory.
	ErrForbidden = errors.New("memory belongs to another session")
	ErrBadImage  = errors.New("image data is not valid base64")
)

// ValidationError reports a draft field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

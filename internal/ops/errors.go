package ops

import "fmt"

// ValidationError reports missing or invalid request fields. The API layer
// maps it to a 400 naming what was missing; it never reaches the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

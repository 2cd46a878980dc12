package dialogue

import "fmt"

// ValidationError marks a malformed client payload. It is raised before
// any external call is made, so callers can answer with guidance instead
// of a generic failure message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

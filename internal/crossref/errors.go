package crossref

import (
	"fmt"

	"research2crossref/internal/services"
)

// ValidationError reports a required field that is absent after
// normalization and has no default for the publication type.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: missing %s", e.Field)
}

// Unwrap lets callers classify the failure with errors.Is(err, services.ErrValidation).
func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}

func missing(field string) error {
	return &ValidationError{Field: field}
}

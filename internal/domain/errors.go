package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when a write has no resolved person identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmptyLedger is returned when a calendar is requested for zero records
	// and no fallback date.
	ErrEmptyLedger = errors.New("no measurements and no fallback day")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced record does not exist in the caller's tenant.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the operation is illegal for the record's lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInfrastructure indicates storage failed; the caller may retry at its discretion.
	ErrInfrastructure = errors.New("infrastructure failure")
)

// ValidationError reports input rejected before any write. When the failure is
// an unbalanced journal it carries both totals so the caller can show the gap.
type ValidationError struct {
	Reason      string
	TotalDebit  float64
	TotalCredit float64
}

func (e *ValidationError) Error() string {
	if e.TotalDebit != 0 || e.TotalCredit != 0 {
		return fmt.Sprintf("validation: %s (total debit %.2f, total credit %.2f)", e.Reason, e.TotalDebit, e.TotalCredit)
	}
	return "validation: " + e.Reason
}

// NewValidationError builds a ValidationError without amount context.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidStateError names the current and required lifecycle states.
type InvalidStateError struct {
	Entity   string
	Current  string
	Required string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is %s, operation requires %s", e.Entity, e.Current, e.Required)
}

// Is lets errors.Is(err, ErrInvalidState) match typed state errors.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NotFoundf wraps ErrNotFound with entity context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

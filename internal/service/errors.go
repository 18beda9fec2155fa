package service

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrOutsideWindow is returned for weekend, past or too distant days when the
// booking window is enforced.
var ErrOutsideWindow = errors.New("date is outside the booking window")

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// invalid converts ozzo-validation results into a ValidationError.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Message: fieldErrs.Error()}
	}
	var ruleErr validation.Error
	if errors.As(err, &ruleErr) {
		return &ValidationError{Message: ruleErr.Error()}
	}
	// internal validation failure, not the caller's fault
	return err
}

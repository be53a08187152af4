package services

import "errors"

// Domain errors surfaced to callers. Delivery and persistence failures are
// handled internally (recorded or retried) and never reach this taxonomy.
var (
	// ErrInvalidState is returned when an operation is not permitted in the
	// lottery's current lifecycle state.
	ErrInvalidState = errors.New("operation not permitted in current lottery state")

	// ErrTerminalState is returned for any transition attempted on an ended
	// lottery.
	ErrTerminalState = errors.New("lottery has ended and its state is final")

	// ErrFeatureDisabled is returned when the lottery feature is switched off.
	ErrFeatureDisabled = errors.New("lottery feature is disabled")
)

// ValidationError reports malformed or incomplete input. It is surfaced to
// the caller and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package invoice

import "errors"

var (
	// ErrValidation is matched by every ValidationError via errors.Is.
	ErrValidation = errors.New("invalid invoice data")
	// ErrIndexOutOfRange indicates a line item reference past the sequence.
	ErrIndexOutOfRange = errors.New("line item index out of range")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

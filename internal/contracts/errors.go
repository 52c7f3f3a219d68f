package contracts

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by the forecast engine when it is invoked
// with an empty price series. That is a caller bug: the orchestrator must
// not hand the engine zero bars.
var ErrInsufficientData = errors.New("insufficient data: at least one bar required")

// ValidationError marks a malformed input row or field. It is always
// recovered locally: the offending row is skipped and processing continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

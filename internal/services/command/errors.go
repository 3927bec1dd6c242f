package command

import (
	"errors"
	"fmt"
)

// ErrNoPendingAction is returned when Confirm or Cancel is called without a
// pending confirmation in the session
var ErrNoPendingAction = errors.New("no pending action")

// InterpretationError means a provider responded but its output could not be
// parsed into a mutation batch. Distinct from gateway exhaustion, which
// surfaces as llm.ModelUnavailableError.
type InterpretationError struct {
	Cause error
	Raw   string // sanitized preview of the unparsable output
}

func (e *InterpretationError) Error() string {
	return fmt.Sprintf("failed to interpret command: %v", e.Cause)
}

func (e *InterpretationError) Unwrap() error {
	return e.Cause
}

// IsInterpretationFailed reports whether err is an interpretation failure
func IsInterpretationFailed(err error) bool {
	var ie *InterpretationError
	return errors.As(err, &ie)
}

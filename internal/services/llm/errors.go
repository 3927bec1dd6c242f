package llm

import (
	"errors"
	"fmt"
)

// ModelUnavailableError is returned when every provider in the failover chain
// has been exhausted. It carries both failure causes so the log line can show
// why each stage gave up.
type ModelUnavailableError struct {
	PrimaryErr   error
	SecondaryErr error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("all model providers unavailable (primary: %v; secondary: %v)", e.PrimaryErr, e.SecondaryErr)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.PrimaryErr
}

// IsModelUnavailable reports whether err means every provider was exhausted
func IsModelUnavailable(err error) bool {
	var m *ModelUnavailableError
	return errors.As(err, &m)
}

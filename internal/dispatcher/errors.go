package dispatcher

import (
	"fmt"
	"time"
)

// DispatchError carries structured context for a turn-level failure
// (§7 kinds 5-6: turn-level fatal, session corruption / missing primary),
// mirrored on team.TeamError.
type DispatchError struct {
	Component string
	Operation string
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NewDispatchError builds a DispatchError stamped with the current time.
func NewDispatchError(component, operation, message string, err error) *DispatchError {
	return &DispatchError{
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

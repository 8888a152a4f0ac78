package core

import (
	"errors"
	"fmt"
)

// ErrMissingStart marks an event with neither start dateTime nor date.
var ErrMissingStart = errors.New("Missing start time") //nolint:staticcheck // message is part of the log format

// TransportError wraps any failure talking to the calendar service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedEventError is returned for events that cannot be processed.
type MalformedEventError struct {
	EventID string
	Err     error
}

func (e *MalformedEventError) Error() string {
	return e.Err.Error()
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

// ValidateEvent checks the event has a usable start time.
func ValidateEvent(e Event) error {
	if e.StartValue() == "" {
		return &MalformedEventError{EventID: e.ID, Err: ErrMissingStart}
	}
	return nil
}

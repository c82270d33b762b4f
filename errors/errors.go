package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBound      = fmt.Errorf("connection identity already bound")
	ErrConnectionUnknown = fmt.Errorf("connection unknown")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrDispatcherStopped = fmt.Errorf("dispatcher not started")
)

// ValidationError marks a join or send request with a missing or empty
// required field. The dispatcher drops such requests at the boundary;
// they never reach persistence or broadcast.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing or empty field %q", e.Field)
}

// PersistenceError wraps any durability failure of the message store,
// including append deadline expiry. It is surfaced only to the
// originating connection, never broadcast.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation   = errors.New("validation error")
	ErrNoPlan       = errors.New("no sync plan prepared")
	ErrPlanConsumed = errors.New("sync plan already executed")
)

// ValidationError rejects a call outright; nothing was changed.
type ValidationError struct {
	Op      string
	Subject string
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Reason)
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %q: %s", e.Op, e.Subject, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(op, subject, reason string, err error) error {
	return &ValidationError{Op: op, Subject: subject, Reason: reason, Err: err}
}

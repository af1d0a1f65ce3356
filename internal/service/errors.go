// Package service implements the game operations on top of the
// repositories: action submission, collective actions, cycle management,
// end-of-cycle resolution, international effects and trading. The engine
// package supplies the pure rules; this package applies them to the
// ledgers transactionally.
package service

import (
	"errors"
	"fmt"
)

// Validation reasons carried by ValidationError.
const (
	ReasonInvalidInput          = "invalid_input"
	ReasonInsufficientResources = "insufficient_resources"
	ReasonQuotaExceeded         = "quota_exceeded"
	ReasonWindowClosed          = "window_closed"
	ReasonTargetNotFound        = "target_not_found"
)

// ValidationError rejects a player request before any state changes.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

// invalid builds a ValidationError.
func invalid(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// StateError rejects an operation against an entity in the wrong
// lifecycle state, e.g. joining a completed collective action or
// cancelling an action twice.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

func stateErr(format string, args ...any) *StateError {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity by kind and ID.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func notFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ProcessingError wraps an internal failure during an operation. Callers
// that hit one should treat the request as retriable.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func processing(op string, err error) *ProcessingError {
	return &ProcessingError{Op: op, Err: err}
}

// translate passes taxonomy errors through unchanged and wraps anything
// else as a ProcessingError for op.
func translate(op string, err error) error {
	var ve *ValidationError
	var se *StateError
	var nf *NotFoundError
	switch {
	case errors.As(err, &ve):
		return ve
	case errors.As(err, &se):
		return se
	case errors.As(err, &nf):
		return nf
	}
	return processing(op, err)
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

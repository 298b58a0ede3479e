package governance

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a governance failure. Callers branch on the code,
// the message is for humans.
type Code string

const (
	CodeNotFound               Code = "NOT_FOUND"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"
	CodeSessionNotOpen         Code = "SESSION_NOT_OPEN"
	CodeDuplicateVote          Code = "DUPLICATE_VOTE"
	CodeSessionBusy            Code = "SESSION_BUSY"
	CodeValidation             Code = "VALIDATION"
	CodeNotAttending           Code = "NOT_ATTENDING"
	CodeInternal               Code = "INTERNAL"
)

// Error is a recoverable governance error returned to the caller of an operation
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, ErrDuplicateVote)
// holds for every duplicate vote regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized           = &Error{Code: CodeUnauthorized, Message: "not allowed"}
	ErrInvalidStateTransition = &Error{Code: CodeInvalidStateTransition, Message: "invalid state transition"}
	ErrSessionNotOpen         = &Error{Code: CodeSessionNotOpen, Message: "voting is not open"}
	ErrDuplicateVote          = &Error{Code: CodeDuplicateVote, Message: "you already voted on this item"}
	ErrSessionBusy            = &Error{Code: CodeSessionBusy, Message: "assembly is busy, try again"}
	ErrValidation             = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrNotAttending           = &Error{Code: CodeNotAttending, Message: "voter is not registered as present"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the governance code carried by err, or CodeInternal
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

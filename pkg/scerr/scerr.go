// Package scerr defines the error taxonomy shared by every scriptoria
// component: a Code plus a human Message and an optional Path, so
// every handler translates a domain error into a single
// ERROR|<sentence> response the same way.
package scerr

import (
	"errors"
	"fmt"
)

// Code is the category of a scriptoria error: Connection, Protocol,
// File, Access, Operation,
// Resource, Liveness.
type Code int

const (
	// Connection errors
	ErrConnFailed Code = iota
	ErrConnClosed
	ErrConnTimeout

	// Protocol errors
	ErrUnknownVerb
	ErrMissingField
	ErrMalformedNumber
	ErrBufferOverflow

	// File errors
	ErrNotFound
	ErrAlreadyExists
	ErrIOFailure
	ErrInvalidFilename

	// Access errors
	ErrNotOwner
	ErrInsufficientPermission
	ErrUserNotFound
	ErrInvalidUsername

	// Operation errors
	ErrSentenceOutOfRange
	ErrWordOutOfRange
	ErrNothingToUndo
	ErrLockedByOther

	// Resource errors
	ErrOutOfMemory
	ErrCapacityReached

	// Liveness errors
	ErrNoStorageAvailable
	ErrPrimaryMissing
)

// Error is a typed scriptoria error carrying the wire-facing message that
// should follow ERROR| on the connection where it occurred.
type Error struct {
	Code    Code
	Message string
	Path    string // filename or address, when applicable
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Path)
	}
	return e.Message
}

// New builds an *Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath attaches a path/filename to an existing error.
func (e *Error) WithPath(path string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Path: path}
}

// Is implements errors.Is support so callers can write
// errors.Is(err, scerr.New(scerr.ErrNotFound, "")) style comparisons by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf returns err's Code if it is (or wraps) a *Error; ok is false
// otherwise.
func CodeOf(err error) (Code, bool) {
	var se *Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code, true
}

// ToFrame renders err as the single-line ERROR|<sentence> response
// the wire protocol uses. A nil error is not expected by callers.
func ToFrame(err error) string {
	if se, ok := err.(*Error); ok {
		return "ERROR|" + se.Error()
	}
	return "ERROR|" + err.Error()
}

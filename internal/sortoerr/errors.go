// Package sortoerr carries the CORE's error taxonomy across the package
// boundary so cmd/sortomatic can map it to a process exit code without
// inspecting error strings.
package sortoerr

import "fmt"

// Exit codes, matching the CLI surface's documented contract.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitInterrupt = 130
)

// Error wraps a fatal error with the exit code the CLI should return for it.
// Transient per-file errors are never wrapped this way; they are logged and
// discarded inside the worker layer.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewFatal wraps a configuration/environment failure (exit 1).
func NewFatal(message string, err error) *Error {
	return &Error{Code: ExitError, Message: message, Err: err}
}

// NewInterrupt marks a user interrupt (exit 130).
func NewInterrupt() *Error {
	return &Error{Code: ExitInterrupt, Message: "interrupted"}
}

// CodeOf returns the exit code for err, defaulting to ExitError for any
// error that isn't a *Error, and ExitOK for a nil error.
func CodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var se *Error
	if ok := asError(err, &se); ok {
		return se.Code
	}
	return ExitError
}

func asError(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

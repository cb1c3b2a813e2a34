package pathstore

import (
	"fmt"
)

// ErrorCode classifies store failures.
type ErrorCode string

const (
	// CodeMalformedStorage is returned when the backing document is not a
	// valid JSON object.
	CodeMalformedStorage ErrorCode = "MALFORMED_STORAGE"
	// CodePathNotFound is returned when a path that must exist does not.
	CodePathNotFound ErrorCode = "PATH_NOT_FOUND"
	// CodeTypeMismatch is returned when the value at a path has the wrong kind
	// for the operation.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// CodePersistence is returned when writing to storage fails. The
	// in-memory document keeps the mutation.
	CodePersistence ErrorCode = "PERSISTENCE_FAILURE"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrMalformedStorage = &Error{code: CodeMalformedStorage, message: "malformed storage"}
	ErrPathNotFound     = &Error{code: CodePathNotFound, message: "path not found"}
	ErrTypeMismatch     = &Error{code: CodeTypeMismatch, message: "type mismatch"}
	ErrPersistence      = &Error{code: CodePersistence, message: "persistence failure"}
)

// Error is a store error with a code, the path involved and an optional cause.
type Error struct {
	code       ErrorCode
	message    string
	path       string
	wrappedErr error
}

func newError(code ErrorCode, path, format string, args ...any) *Error {
	return &Error{code: code, path: path, message: fmt.Sprintf(format, args...)}
}

func typeMismatch(path string, want string, got Kind) *Error {
	return newError(CodeTypeMismatch, path, "expected %s, found %s", want, got)
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Path returns the path the operation was applied to, if any.
func (e *Error) Path() string {
	return e.path
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.message
	if e.path != "" {
		msg = fmt.Sprintf("%s: %s", e.path, msg)
	}
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", msg, e.wrappedErr)
	}
	return msg
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is matches errors with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

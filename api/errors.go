// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error types and error handling utilities for hioload-reactor.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrProtocolMisuse    = errors.New("protocol misuse")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrCallbackFailure   = errors.New("callback failure")
	ErrReactorTerminated = errors.New("reactor terminated")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeProtocolMisuse
	ErrCodeResourceExhausted
	ErrCodeCallback
	ErrCodeInternal
)

// sentinels maps codes to their sentinel error for errors.Is support.
var sentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument:   ErrInvalidArgument,
	ErrCodeProtocolMisuse:    ErrProtocolMisuse,
	ErrCodeResourceExhausted: ErrResourceExhausted,
	ErrCodeCallback:          ErrCallbackFailure,
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap yields the sentinel for the error's code, so callers can use
// errors.Is(err, api.ErrProtocolMisuse) regardless of message text.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new structured error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsCode reports whether err carries the given library error code.
func IsCode(err error, code ErrorCode) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

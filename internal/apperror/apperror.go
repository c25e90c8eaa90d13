// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package apperror defines AppError, the canonical error value that every
// failure is turned into before it reaches a client.
//
// An AppError carries an HTTP status code, the derived status class
// ("fail" for 4xx, "error" for 5xx), and an operational flag. The flag is
// decided once, by whichever layer constructs the error, and is never
// re-derived later from the message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Status is the coarse class of an AppError as rendered to clients.
type Status string

const (
	// StatusFail marks client-side failures (4xx).
	StatusFail Status = "fail"
	// StatusError marks server-side failures (5xx).
	StatusError Status = "error"
)

// GenericMessage replaces the message of every non-operational error before
// it crosses the process boundary.
const GenericMessage = "Something went very wrong!"

// AppError is the single error shape understood by the error stage.
type AppError struct {
	// Message is the human-readable description. For operational errors it is
	// safe to show verbatim.
	Message string `json:"message"`

	// StatusCode is the HTTP status code of the response (400–599).
	StatusCode int `json:"statusCode"`

	// Status is derived from StatusCode, see StatusFor.
	Status Status `json:"status"`

	// IsOperational is true for expected domain failures and false for bugs
	// and other unexpected failures.
	IsOperational bool `json:"isOperational"`

	// Stack is a diagnostic trace captured at construction.
	Stack string `json:"-"`

	// Cause is the underlying error, if any. It is logged server-side only.
	Cause error `json:"-"`
}

// New constructs an operational AppError with the given status code.
func New(message string, statusCode int) *AppError {
	return &AppError{
		Message:       message,
		StatusCode:    statusCode,
		Status:        StatusFor(statusCode),
		IsOperational: true,
		Stack:         captureStack(3),
	}
}

// Newf is New with a formatted message.
func Newf(statusCode int, format string, args ...any) *AppError {
	e := New(fmt.Sprintf(format, args...), statusCode)
	e.Stack = captureStack(3)
	return e
}

// Internal wraps an unexpected failure. The original message is kept in
// Cause only; Message is always GenericMessage.
func Internal(cause error) *AppError {
	e := &AppError{
		Message:       GenericMessage,
		StatusCode:    http.StatusInternalServerError,
		Status:        StatusError,
		IsOperational: false,
		Cause:         cause,
	}

	var st interface{ StackTrace() string }
	if errors.As(cause, &st) {
		e.Stack = st.StackTrace()
	} else {
		e.Stack = captureStack(3)
	}
	return e
}

// BadRequest creates a 400 operational error.
func BadRequest(message string) *AppError { return New(message, http.StatusBadRequest) }

// Unauthorized creates a 401 operational error.
func Unauthorized(message string) *AppError { return New(message, http.StatusUnauthorized) }

// Forbidden creates a 403 operational error.
func Forbidden(message string) *AppError { return New(message, http.StatusForbidden) }

// NotFound creates a 404 operational error.
func NotFound(message string) *AppError { return New(message, http.StatusNotFound) }

// TooLarge creates a 413 operational error.
func TooLarge(message string) *AppError { return New(message, http.StatusRequestEntityTooLarge) }

// TooManyRequests creates a 429 operational error.
func TooManyRequests(message string) *AppError { return New(message, http.StatusTooManyRequests) }

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithCause records cause on the error and returns it.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Detail returns the most specific description available for logs: the
// cause's message when present, Message otherwise.
func (e *AppError) Detail() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// Defaults fills StatusCode and Status when they are missing or out of range.
func (e *AppError) Defaults() *AppError {
	if e.StatusCode < 400 || e.StatusCode > 599 {
		e.StatusCode = http.StatusInternalServerError
	}
	if e.Status == "" {
		e.Status = StatusFor(e.StatusCode)
	}
	return e
}

// StatusFor derives the status class from an HTTP status code.
func StatusFor(statusCode int) Status {
	if statusCode >= 400 && statusCode < 500 {
		return StatusFail
	}
	return StatusError
}

// As extracts the first *AppError from err's chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

func captureStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

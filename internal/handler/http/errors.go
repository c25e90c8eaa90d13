// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
)

// Fixed client messages raised by filters and middleware.
const (
	msgTooManyRequests = "Too many requests from this IP, please try again in an hour!"
	msgNotLoggedIn     = "You are not logged in! Please log in to get access."
	msgNoPermission    = "You do not have permission to perform this action"
)

// Sentinel errors of the body governor. They are kept as the Cause of the
// AppError the client sees.
var (
	// ErrNoToken is returned when a protected route receives neither an
	// Authorization header nor the auth cookie.
	ErrNoToken = errors.New("no token in `Authorization` header or cookie")

	// ErrBodyTooLarge is returned when a request body exceeds the configured
	// ceiling, either by its declared Content-Length or while reading.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrMalformedBody is returned when a JSON or form body cannot be decoded.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrBodyNotObject is returned when a handler needs a JSON object but the
	// body holds another JSON value.
	ErrBodyNotObject = errors.New("request body is not a JSON object")
)

func errNotLoggedIn(cause error) error {
	return apperror.New(msgNotLoggedIn, http.StatusUnauthorized).WithCause(cause)
}

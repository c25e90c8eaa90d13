// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package disclosure decides how much of a normalized error is shown to the
// client. A Policy is picked once at startup from the application mode and
// injected into the HTTP handler; it is the only component that writes error
// responses.
package disclosure

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/utils"
)

// Application modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Policy writes a normalized AppError to the client.
type Policy interface {
	Write(w http.ResponseWriter, r *http.Request, err *apperror.AppError)
}

// New returns the Policy for mode. Unknown modes are rejected so that a typo
// never silently falls back to the verbose development policy.
func New(mode string) (Policy, error) {
	switch mode {
	case ModeDevelopment:
		return Development{}, nil
	case ModeProduction:
		return Production{}, nil
	default:
		return nil, fmt.Errorf("disclosure: unknown mode %q", mode)
	}
}

// devBody is the development envelope: the full error object plus its stack.
type devBody struct {
	Status  apperror.Status `json:"status"`
	Error   devError        `json:"error"`
	Message string          `json:"message"`
	Stack   string          `json:"stack"`
}

// devError is the error object with the raw cause text next to it.
type devError struct {
	*apperror.AppError
	Detail string `json:"detail,omitempty"`
}

// prodBody is the production envelope.
type prodBody struct {
	Status  apperror.Status `json:"status"`
	Message string          `json:"message"`
}

// Development exposes everything, including the text of the underlying cause.
type Development struct{}

func (Development) Write(w http.ResponseWriter, r *http.Request, err *apperror.AppError) {
	log := logger.FromRequest(r)
	log.Debug().
		Int("status_code", err.StatusCode).
		Bool("operational", err.IsOperational).
		Str("detail", err.Detail()).
		Msg("request failed")

	body := devBody{
		Status:  err.Status,
		Error:   devError{AppError: err},
		Message: err.Message,
		Stack:   err.Stack,
	}
	if err.Cause != nil {
		body.Error.Detail = err.Detail()
	}
	if _, writeErr := utils.WriteJSON(w, body, err.StatusCode); writeErr != nil {
		log.Err(writeErr).Msg("error writing error response")
	}
}

// Production shows operational messages verbatim and hides everything about
// non-operational failures except that they happened.
type Production struct{}

func (Production) Write(w http.ResponseWriter, r *http.Request, err *apperror.AppError) {
	log := logger.FromRequest(r)

	if err.IsOperational {
		if _, writeErr := utils.WriteJSON(w, prodBody{Status: err.Status, Message: err.Message}, err.StatusCode); writeErr != nil {
			log.Err(writeErr).Msg("error writing error response")
		}
		return
	}

	log.Error().
		Str("error_message", err.Message).
		Str("cause", err.Detail()).
		Str("stack", err.Stack).
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Msg("unexpected error")

	body := prodBody{Status: apperror.StatusError, Message: apperror.GenericMessage}
	if _, writeErr := utils.WriteJSON(w, body, http.StatusInternalServerError); writeErr != nil {
		log.Err(writeErr).Msg("error writing error response")
	}
}

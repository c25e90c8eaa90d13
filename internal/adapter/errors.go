package adapter

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
)

// APIError is a non-2xx answer of the server.
type APIError struct {
	StatusCode int
	// Status is "fail" or "error" as sent in the envelope.
	Status  string
	Message string

	kind error
}

func (e *APIError) Error() string {
	if e.kind != nil {
		return fmt.Sprintf("%s (%d): %s", e.kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

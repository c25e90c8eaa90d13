package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/store"
)

type mappedError struct {
	target     error
	statusCode int
	message    string
}

// errorMappings turns sentinels the handler layer understands into
// operational errors. Order matters when one error wraps another.
var errorMappings = []mappedError{
	{store.ErrDocumentNotFound, http.StatusNotFound, "No document found with that ID"},

	{service.ErrWrongPassword, http.StatusUnauthorized, "Incorrect email or password"},
	{service.ErrInvalidDataProvided, http.StatusBadRequest, "Invalid input data."},
	{service.ErrPasswordsDoNotMatch, http.StatusBadRequest, "Passwords are not the same!"},
	{service.ErrTokenIsExpiredOrInvalid, http.StatusUnauthorized, "Invalid token. Please log in again!"},
	{service.ErrUserNoLongerExists, http.StatusUnauthorized, "The user belonging to this token does no longer exist."},
	{service.ErrPasswordChanged, http.StatusUnauthorized, "User recently changed password! Please log in again."},
	{service.ErrWrongCurrentPassword, http.StatusUnauthorized, "Your current password is wrong."},
	{service.ErrPasswordUpdateNotAllowed, http.StatusBadRequest, "This route is not for password updates. Please use /updateMyPassword."},
	{service.ErrUseSignup, http.StatusBadRequest, "This route is not defined! Please use /signup instead"},

	{service.ErrWebhookDisabled, http.StatusServiceUnavailable, "Webhook receiver is not configured"},
	{service.ErrInvalidSignature, http.StatusBadRequest, ""},
	{service.ErrTimestampOutsideTolerance, http.StatusBadRequest, ""},
	{service.ErrMalformedEvent, http.StatusBadRequest, ""},
	{service.ErrCheckoutCustomerNotFound, http.StatusBadRequest, ""},
}

// mapError returns an AppError for known sentinels and err unchanged
// otherwise; unknown shapes are left for the normalizer.
func mapError(err error) error {
	if err == nil || apperror.As(err) != nil {
		return err
	}
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = "Webhook error: " + m.target.Error()
		}
		return apperror.New(msg, m.statusCode).WithCause(err)
	}
	return err
}

// notFound is the per-collection variant used by the document routers.
func notFound(resource string, err error) error {
	if errors.Is(err, store.ErrDocumentNotFound) {
		return apperror.Newf(http.StatusNotFound, "No %s found with that ID", resource).WithCause(err)
	}
	return err
}

package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")
	ErrPasswordsDoNotMatch = errors.New("passwords are not the same")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrUserNoLongerExists      = errors.New("the user belonging to this token no longer exists")
	ErrPasswordChanged         = errors.New("password changed after the token was issued")

	ErrWrongCurrentPassword     = errors.New("current password is wrong")
	ErrPasswordUpdateNotAllowed = errors.New("password fields sent to the profile update")

	ErrUseSignup = errors.New("users are created through signup")

	ErrWebhookDisabled           = errors.New("webhook signing secret is not configured")
	ErrInvalidSignature          = errors.New("invalid webhook signature")
	ErrTimestampOutsideTolerance = errors.New("webhook timestamp outside the tolerance zone")
	ErrMalformedEvent            = errors.New("malformed webhook event")
	ErrCheckoutCustomerNotFound  = errors.New("no user for checkout customer email")
)

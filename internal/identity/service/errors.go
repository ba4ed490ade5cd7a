package service

import (
	"errors"

	"portfolio-admin/internal/security"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes and messages.
var (
	ErrMissingField        = security.ErrMissingField
	ErrInvalidCredentials  = security.ErrInvalidCredentials
	ErrEmailDeliveryFailed = errors.New("failed to send OTP email")
	ErrOTPExpiredOrMissing = errors.New("otp expired or missing")
	ErrOTPExpired          = errors.New("otp expired")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrOTPAttemptsExceeded = errors.New("too many invalid otp attempts")
)

// EmailDeliveryError carries the notifier failure. It matches ErrEmailDeliveryFailed with errors.Is.
type EmailDeliveryError struct {
	Err error
}

func (e *EmailDeliveryError) Error() string {
	return "failed to send OTP email: " + e.Err.Error()
}

func (e *EmailDeliveryError) Unwrap() []error {
	return []error{ErrEmailDeliveryFailed, e.Err}
}

package models

import "errors"

// Sentinel errors for expected failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors. Unknown email and wrong password share a single
	// sentinel so callers cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("invalid or revoked token")

	// Two-factor errors
	ErrTOTPRequired = errors.New("two-factor code required")
	ErrTOTPInvalid  = errors.New("invalid two-factor code")
)

package auth

import "errors"

// Errors returned by Service and the request gate. Callers map them to
// transport status codes.
var (
	ErrMissingInput       = errors.New("missing input")
	ErrNotFound           = errors.New("not found")
	ErrExpired            = errors.New("expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrConflict           = errors.New("email already registered")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrInvalidSignature = errors.New("invalid session signature")
	ErrSessionExpired   = errors.New("session expired")
)

// Package common defines shared constants and sentinel errors used across
// server and client layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrWeakPassword    = errors.New("password does not satisfy policy")

	// Credential errors. ErrAccountInactive never leaves the service layer,
	// it is collapsed into ErrInvalidCredentials before reaching callers.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUnknownUserType    = errors.New("unknown user type")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	// Token lifecycle errors.
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrTokenGenerationFailed = errors.New("token generation failed")
)

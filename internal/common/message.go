package common

import "errors"

// publicMessages are the caller-facing texts of the sentinels that may cross
// the API boundary. Order matters only for errors wrapping several sentinels.
var publicMessages = []struct {
	err error
	msg string
}{
	{ErrInvalidCredentials, "Invalid username or password"},
	{ErrAccountInactive, "Invalid username or password"},
	{ErrUnknownUserType, "Unknown user type"},
	{ErrTooManyAttempts, "Too many failed login attempts, try again later"},
	{ErrTokenRevoked, "Token has been revoked"},
	{ErrTokenExpired, "Token has expired"},
	{ErrInvalidOrExpiredToken, "Invalid or expired token"},
	{ErrInvalidToken, "Invalid token"},
	{ErrorUnauthorized, "Unauthorized"},
	{ErrWeakPassword, "Password does not meet the password policy"},
	{ErrInvalidArgument, "Invalid request"},
	{ErrAlreadyExists, "Username or email already exists"},
	{ErrorNotFound, "Not found"},
}

// PublicMessage returns a message that is safe to show to API callers.
// Unknown errors, including storage failures, get a generic text.
func PublicMessage(err error) string {
	for _, m := range publicMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Internal server error"
}

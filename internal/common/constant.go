package common

const (
	// AuthorizationHeader carries the bearer access token.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// Cookie names used by the HTTP surface and the CLI.
	RefreshTokenCookie = "refreshToken"
	RememberMeCookie   = "rememberMe"
)

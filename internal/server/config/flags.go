package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-i", "-u", "-t", "-r", "-m",
	"-redis", "-log", "-log-level", "-revoke-family", "-cookie-secure",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string         HTTP bind address (e.g. ":8080")
//	-d string         PostgreSQL DSN, empty for in-memory storage
//	-s string         JWT HMAC secret key
//	-i string         JWT issuer
//	-u string         JWT audience
//	-t int            access token lifetime, minutes
//	-r float          refresh token lifetime, days
//	-m float          remember-me token lifetime, days
//	-redis string     Redis address for blacklist and login throttle
//	-log string       log backend: slog, zap or zerolog
//	-log-level string minimum log level
//	-revoke-family    revoke all sessions on refresh token reuse
//	-cookie-secure    mark auth cookies Secure
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// loaders (-c, -env) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "jwt issuer")
	fs.StringVar(&config.Audience, "u", config.Audience, "jwt audience")
	fs.IntVar(&config.AccessTokenMinutes, "t", config.AccessTokenMinutes, "access token lifetime (in minutes)")
	fs.Float64Var(&config.RefreshTokenDays, "r", config.RefreshTokenDays, "refresh token lifetime (in days)")
	fs.Float64Var(&config.RememberMeTokenDays, "m", config.RememberMeTokenDays, "remember-me token lifetime (in days)")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.BoolVar(&config.RevokeFamilyOnReuse, "revoke-family", config.RevokeFamilyOnReuse, "revoke all sessions on refresh token reuse")
	fs.BoolVar(&config.CookieSecure, "cookie-secure", config.CookieSecure, "secure cookies")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

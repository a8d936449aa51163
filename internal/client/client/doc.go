// Package client talks to the gophauth HTTP API.
//
// HTTPClient maps every endpoint to a method and translates HTTP failures
// into the sentinel errors of this package:
//
//   - ErrUnavailable: the server could not be reached.
//   - ErrUnauthorized: 401, bad credentials or an unusable token.
//   - ErrForbidden: 403, the token lacks an admin role.
//   - ErrRejected: any other non-2xx answer.
//
// The server's message is appended to the wrapped error.
//
// InitDatabase opens the local SQLite session store and applies the embedded
// goose migrations.
package client

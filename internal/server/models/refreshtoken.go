package models

import "time"

// TokenState is the lifecycle state of a refresh token record.
type TokenState string

const (
	TokenActive   TokenState = "active"
	TokenRevoked  TokenState = "revoked"
	TokenConsumed TokenState = "consumed"
)

// RefreshToken is a ledger row. Only the digest of the opaque secret is kept.
type RefreshToken struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	TokenHash  string     `db:"token_hash"`
	JTI        string     `db:"jti"`
	ExpiresAt  time.Time  `db:"expires_at"`
	RememberMe bool       `db:"remember_me"`
	State      TokenState `db:"state"`
	ReplacedBy *string    `db:"replaced_by"`
	CreatedAt  time.Time  `db:"created_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
	// UserType is the type the session was opened as; rotation keeps it.
	UserType UserType `db:"user_type"`
}

// Usable reports whether the record is active and unexpired at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.State == TokenActive && now.Before(t.ExpiresAt)
}

// RememberMeToken is a long-lived re-login credential. ID doubles as the
// public selector, VerifierHash is a password-grade hash of the secret part.
type RememberMeToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	VerifierHash string     `db:"verifier_hash"`
	ExpiresAt    time.Time  `db:"expires_at"`
	Used         bool       `db:"is_used"`
	CreatedAt    time.Time  `db:"created_at"`
	UsedAt       *time.Time `db:"used_at"`
	UserType     UserType   `db:"user_type"`
}

// Usable reports whether the token is unused and unexpired at now.
func (t *RememberMeToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// Package refreshtokens declares the server-side repository contract for the
// refresh token ledger. Records are addressed by the digest of the opaque
// secret; the secret itself is never stored.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists refresh token records.
type Repository interface {
	// Create inserts a new active record. A duplicate digest yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, t *models.RefreshToken) error

	// FindByHash returns the record with the given digest in any state,
	// or common.ErrorNotFound.
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)

	// Consume atomically moves an active, unexpired record to consumed and
	// links it to its successor. Of several concurrent callers at most one
	// succeeds; the others get common.ErrorNotFound, as does a record that is
	// missing, expired or no longer active.
	Consume(ctx context.Context, hash, replacedBy string, now time.Time) (*models.RefreshToken, error)

	// Revoke moves an active record to revoked and reports whether it did.
	Revoke(ctx context.Context, hash string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every active record of userID.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)

	// DeleteExpired removes records that expired at or before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Package remembermetokens stores long-lived re-login credentials. The row id
// is the public selector; only a password-grade hash of the verifier is kept.
package remembermetokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.RememberMeToken) error
	// FindByID returns the token regardless of its state, or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.RememberMeToken, error)
	// MarkUsed flips an unused, unexpired token to used and reports whether
	// this call did it.
	MarkUsed(ctx context.Context, id string, now time.Time) (bool, error)
	// InvalidateAllForUser marks every unused token of userID as used.
	InvalidateAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

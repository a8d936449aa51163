// Package usersessions keeps the per-device login records shown to operators
// and cleared by logout-everywhere.
package usersessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.UserSession) error
	// ListActiveForUser returns the live sessions of userID, newest first.
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]models.UserSession, error)
	// DeactivateAllForUser flips every active session of userID to inactive.
	DeactivateAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

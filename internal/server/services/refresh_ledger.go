package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// NewRefreshToken describes a refresh record to be created.
type NewRefreshToken struct {
	Secret      string
	JTI         string
	PrincipalID string
	Duration    time.Duration
	RememberMe  bool
	// UserType is the population the session was opened as. Empty means
	// end-user.
	UserType models.UserType
}

func (n NewRefreshToken) validate() error {
	if n.Secret == "" || n.JTI == "" || n.PrincipalID == "" {
		return fmt.Errorf("%w: secret, jti and principal are required", common.ErrInvalidArgument)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("%w: non-positive duration", common.ErrInvalidArgument)
	}
	return nil
}

// RefreshTokenLedger persists refresh tokens by digest and enforces
// single-use rotation. Every failed lookup is reported as
// common.ErrInvalidOrExpiredToken, whatever the underlying reason.
type RefreshTokenLedger struct {
	store Storage
	now   func() time.Time
}

func NewRefreshTokenLedger(store Storage) *RefreshTokenLedger {
	return &RefreshTokenLedger{store: store, now: time.Now}
}

func (l *RefreshTokenLedger) record(n NewRefreshToken, now time.Time) *models.RefreshToken {
	ut := n.UserType
	if ut == "" {
		ut = models.UserTypeEndUser
	}
	return &models.RefreshToken{
		ID:         uuid.NewString(),
		UserID:     n.PrincipalID,
		TokenHash:  cryptox.Digest(n.Secret),
		JTI:        n.JTI,
		ExpiresAt:  now.Add(n.Duration),
		RememberMe: n.RememberMe,
		State:      models.TokenActive,
		CreatedAt:  now,
		UserType:   ut,
	}
}

// Create stores a new active record expiring Duration from now.
func (l *RefreshTokenLedger) Create(ctx context.Context, n NewRefreshToken) (*models.RefreshToken, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	rec := l.record(n, l.now().UTC())
	if err := l.store.Repos.RefreshTokens(l.store.DB).Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return rec, nil
}

// Validate returns the record for secret if it is active and unexpired.
func (l *RefreshTokenLedger) Validate(ctx context.Context, secret string) (*models.RefreshToken, error) {
	rec, err := l.Lookup(ctx, secret)
	if err != nil {
		return nil, err
	}
	if !rec.Usable(l.now()) {
		return nil, common.ErrInvalidOrExpiredToken
	}
	return rec, nil
}

// Lookup returns the record for secret in any state.
func (l *RefreshTokenLedger) Lookup(ctx context.Context, secret string) (*models.RefreshToken, error) {
	if secret == "" {
		return nil, common.ErrInvalidOrExpiredToken
	}
	rec, err := l.store.Repos.RefreshTokens(l.store.DB).FindByHash(ctx, cryptox.Digest(secret))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return rec, nil
}

// Rotate consumes the active record of secret and creates its successor in
// one transaction. The successor must belong to the same principal and
// session user type. Of
// concurrent rotations of one secret exactly one succeeds; the rest get
// common.ErrInvalidOrExpiredToken.
func (l *RefreshTokenLedger) Rotate(ctx context.Context, secret string, next NewRefreshToken) (*models.RefreshToken, error) {
	if secret == "" {
		return nil, common.ErrInvalidOrExpiredToken
	}
	if err := next.validate(); err != nil {
		return nil, err
	}

	now := l.now().UTC()
	successor := l.record(next, now)

	err := l.store.Tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := l.store.Repos.RefreshTokens(tx)

		old, err := repo.Consume(ctx, cryptox.Digest(secret), successor.ID, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return fmt.Errorf("consume refresh token: %w", err)
		}
		if old.UserID != successor.UserID || old.UserType != successor.UserType {
			return common.ErrInvalidOrExpiredToken
		}

		if err := repo.Create(ctx, successor); err != nil {
			return fmt.Errorf("create successor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

// Revoke moves the record of secret to revoked. It reports false when there
// was no active record.
func (l *RefreshTokenLedger) Revoke(ctx context.Context, secret string) (bool, error) {
	if secret == "" {
		return false, nil
	}
	ok, err := l.store.Repos.RefreshTokens(l.store.DB).Revoke(ctx, cryptox.Digest(secret), l.now().UTC())
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return ok, nil
}

// RevokeAll revokes every active record of principalID.
func (l *RefreshTokenLedger) RevokeAll(ctx context.Context, principalID string) (int64, error) {
	n, err := l.store.Repos.RefreshTokens(l.store.DB).RevokeAllForUser(ctx, principalID, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes records that expired before now.
func (l *RefreshTokenLedger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.store.Repos.RefreshTokens(l.store.DB).DeleteExpired(ctx, l.now().UTC())
}

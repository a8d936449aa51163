package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// SecretSource produces opaque random secrets.
type SecretSource interface {
	IssueOpaqueSecret(n int) (string, error)
}

// SecretHasher is the password-grade hash used for remember-me verifiers.
type SecretHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) bool
}

// RememberMeLedger issues one-shot remember-me tokens. The secret handed to
// the client is "<selector>.<verifier>": the selector is the record id and
// only a hash of the verifier is stored.
type RememberMeLedger struct {
	store   Storage
	secrets SecretSource
	hasher  SecretHasher
	now     func() time.Time
}

func NewRememberMeLedger(store Storage, secrets SecretSource, hasher SecretHasher) *RememberMeLedger {
	return &RememberMeLedger{store: store, secrets: secrets, hasher: hasher, now: time.Now}
}

// Issue creates a token for principalID, logged in as userType, valid for d
// and returns the plaintext secret. The plaintext is not kept anywhere.
func (l *RememberMeLedger) Issue(ctx context.Context, principalID string, userType models.UserType, d time.Duration) (string, *models.RememberMeToken, error) {
	if principalID == "" || d <= 0 {
		return "", nil, common.ErrInvalidArgument
	}
	if userType == "" {
		userType = models.UserTypeEndUser
	}

	verifier, err := l.secrets.IssueOpaqueSecret(0)
	if err != nil {
		return "", nil, err
	}
	hash, err := l.hasher.Hash(verifier)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrTokenGenerationFailed, err)
	}

	now := l.now().UTC()
	rec := &models.RememberMeToken{
		ID:           uuid.NewString(),
		UserID:       principalID,
		VerifierHash: hash,
		ExpiresAt:    now.Add(d),
		CreatedAt:    now,
		UserType:     userType,
	}
	if err := l.store.Repos.RememberMeTokens(l.store.DB).Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("create remember-me token: %w", err)
	}
	return rec.ID + "." + verifier, rec, nil
}

func splitSecret(secret string) (selector, verifier string, ok bool) {
	selector, verifier, ok = strings.Cut(secret, ".")
	if !ok || verifier == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(selector); err != nil {
		return "", "", false
	}
	return selector, verifier, true
}

// Validate returns the record for secret if it is unused, unexpired and the
// verifier matches.
func (l *RememberMeLedger) Validate(ctx context.Context, secret string) (*models.RememberMeToken, error) {
	selector, verifier, ok := splitSecret(secret)
	if !ok {
		return nil, common.ErrInvalidOrExpiredToken
	}

	rec, err := l.store.Repos.RememberMeTokens(l.store.DB).FindByID(ctx, selector)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("find remember-me token: %w", err)
	}
	if !rec.Usable(l.now()) || !l.hasher.Verify(verifier, rec.VerifierHash) {
		return nil, common.ErrInvalidOrExpiredToken
	}
	return rec, nil
}

// Consume validates secret and marks it used. Only one caller can consume
// a given token.
func (l *RememberMeLedger) Consume(ctx context.Context, secret string) (*models.RememberMeToken, error) {
	rec, err := l.Validate(ctx, secret)
	if err != nil {
		return nil, err
	}
	ok, err := l.store.Repos.RememberMeTokens(l.store.DB).MarkUsed(ctx, rec.ID, l.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark remember-me token used: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidOrExpiredToken
	}
	rec.Used = true
	return rec, nil
}

// InvalidateAll marks every unused token of principalID as used.
func (l *RememberMeLedger) InvalidateAll(ctx context.Context, principalID string) (int64, error) {
	n, err := l.store.Repos.RememberMeTokens(l.store.DB).InvalidateAllForUser(ctx, principalID, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("invalidate remember-me tokens: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes tokens that expired before now.
func (l *RememberMeLedger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.store.Repos.RememberMeTokens(l.store.DB).DeleteExpired(ctx, l.now().UTC())
}

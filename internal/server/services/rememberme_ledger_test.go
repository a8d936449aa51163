package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSecrets struct{ n int }

func (f *fixedSecrets) IssueOpaqueSecret(int) (string, error) {
	f.n++
	return strings.Repeat("v", 40) + string(rune('a'+f.n%26)), nil
}

func newRememberMeLedger() *RememberMeLedger {
	store, _ := NewMemoryStorage()
	return NewRememberMeLedger(store, &fixedSecrets{}, testHasher)
}

func TestRememberMe_IssueHashesVerifier(t *testing.T) {
	l := newRememberMeLedger()
	ctx := context.Background()

	secret, rec, err := l.Issue(ctx, "u-1", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)

	selector, verifier, ok := strings.Cut(secret, ".")
	require.True(t, ok)
	assert.Equal(t, rec.ID, selector)
	assert.NotContains(t, rec.VerifierHash, verifier)
	assert.True(t, strings.HasPrefix(rec.VerifierHash, "$argon2id$"))

	got, err := l.Validate(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
}

func TestRememberMe_RecordsUserType(t *testing.T) {
	l := newRememberMeLedger()
	ctx := context.Background()

	secret, rec, err := l.Issue(ctx, "u-1", models.UserTypePartner, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypePartner, rec.UserType)

	got, err := l.Consume(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypePartner, got.UserType)

	_, rec, err = l.Issue(ctx, "u-1", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeEndUser, rec.UserType)
}

func TestRememberMe_IssueRejectsBadInput(t *testing.T) {
	l := newRememberMeLedger()
	_, _, err := l.Issue(context.Background(), "", models.UserTypeEndUser, time.Hour)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, _, err = l.Issue(context.Background(), "u-1", models.UserTypeEndUser, 0)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestRememberMe_ValidateFailures(t *testing.T) {
	l := newRememberMeLedger()
	ctx := context.Background()
	base := time.Now()
	l.now = func() time.Time { return base }

	secret, rec, err := l.Issue(ctx, "u-1", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":           "",
		"no separator":    rec.ID,
		"bad selector":    "not-a-uuid.verifier",
		"wrong verifier":  rec.ID + ".wrong",
		"unknown id":      "7b1b7f4e-0000-4000-8000-000000000000.verifier",
		"empty verifier":  rec.ID + ".",
		"tampered suffix": secret + "x",
	}
	for name, s := range cases {
		_, err := l.Validate(ctx, s)
		assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken, name)
	}

	l.now = func() time.Time { return base.Add(time.Hour) }
	_, err = l.Validate(ctx, secret)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken, "expired")
}

func TestRememberMe_ConsumeOnce(t *testing.T) {
	l := newRememberMeLedger()
	ctx := context.Background()

	secret, _, err := l.Issue(ctx, "u-1", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Consume(ctx, secret); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	_, err = l.Validate(ctx, secret)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestRememberMe_InvalidateAll(t *testing.T) {
	l := newRememberMeLedger()
	ctx := context.Background()

	s1, _, err := l.Issue(ctx, "u-1", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)
	s2, _, err := l.Issue(ctx, "u-1", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)
	other, _, err := l.Issue(ctx, "u-2", models.UserTypeEndUser, time.Hour)
	require.NoError(t, err)

	n, err := l.InvalidateAll(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, s := range []string{s1, s2} {
		_, err := l.Validate(ctx, s)
		assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
	}
	_, err = l.Validate(ctx, other)
	assert.NoError(t, err)
}

package usersessions

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Lifecycle(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	older := sampleSession()
	older.CreatedAt = now.Add(-time.Hour)
	newer := sampleSession()
	newer.ID = "66666666-6666-4666-8666-666666666666"
	newer.CreatedAt = now
	other := sampleSession()
	other.ID = "77777777-7777-4777-8777-777777777777"
	other.UserID = "u-2"

	for _, s := range []*models.UserSession{older, newer, other} {
		require.NoError(t, r.Create(ctx, s))
	}
	assert.ErrorIs(t, r.Create(ctx, older), common.ErrAlreadyExists)

	live, err := r.ListActiveForUser(ctx, "u-1", now)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, newer.ID, live[0].ID)

	n, err := r.DeactivateAllForUser(ctx, "u-1", now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	live, err = r.ListActiveForUser(ctx, "u-1", now)
	require.NoError(t, err)
	assert.Empty(t, live)

	n, err = r.DeactivateAllForUser(ctx, "u-1", now)
	require.NoError(t, err)
	assert.Zero(t, n)

	live, err = r.ListActiveForUser(ctx, "u-2", now)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestMemory_ExpiredSessionsHiddenAndPurged(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	s := sampleSession()
	require.NoError(t, r.Create(ctx, s))

	live, err := r.ListActiveForUser(ctx, "u-1", s.ExpiresAt)
	require.NoError(t, err)
	assert.Empty(t, live)

	n, err := r.DeleteExpired(ctx, s.ExpiresAt.Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.DeleteExpired(ctx, s.ExpiresAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

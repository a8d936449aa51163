package remembermetokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Lifecycle(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	tok := sampleToken()
	require.NoError(t, r.Create(ctx, tok))
	assert.ErrorIs(t, r.Create(ctx, tok), common.ErrAlreadyExists)

	ok, err := r.MarkUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkUsed(ctx, tok.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, got.Used)
	require.NotNil(t, got.UsedAt)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_MarkUsedExpired(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	tok := sampleToken()
	require.NoError(t, r.Create(ctx, tok))

	ok, err := r.MarkUsed(ctx, tok.ID, tok.ExpiresAt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ConcurrentMarkUsed(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	tok := sampleToken()
	require.NoError(t, r.Create(ctx, tok))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.MarkUsed(ctx, tok.ID, time.Now()); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemory_InvalidateAllAndDeleteExpired(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	a := sampleToken()
	a.ID = "a"
	b := sampleToken()
	b.ID, b.ExpiresAt = "b", now.Add(-time.Hour)
	c := sampleToken()
	c.ID, c.UserID = "c", "u-2"
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))
	require.NoError(t, r.Create(ctx, c))

	n, err := r.InvalidateAllForUser(ctx, "u-1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := r.FindByID(ctx, "c")
	require.NoError(t, err)
	assert.False(t, got.Used)

	n, err = r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = r.FindByID(ctx, "b")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

package policy

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewStore(TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 1}, l)
}

func ptr[T any](v T) *T { return &v }

func TestStore_Defaults(t *testing.T) {
	s := newTestStore(t)

	p := s.Current()
	assert.Equal(t, 15*time.Minute, p.AccessTokenDuration())
	assert.Equal(t, 6*time.Hour, p.RefreshTokenDuration())
	assert.Equal(t, 24*time.Hour, p.RememberMeTokenDuration())
	assert.Equal(t, p, s.Default())
}

func TestStore_UpdateClamps(t *testing.T) {
	tests := []struct {
		name string
		in   Update
		want TokenPolicy
	}{
		{
			name: "above maximum",
			in:   Update{AccessTokenMinutes: ptr(999), RefreshTokenDays: ptr(100.0), RememberMeTokenDays: ptr(365.0)},
			want: TokenPolicy{AccessTokenMinutes: 60, RefreshTokenDays: 7, RememberMeTokenDays: 30},
		},
		{
			name: "below minimum",
			in:   Update{AccessTokenMinutes: ptr(0), RefreshTokenDays: ptr(0.0), RememberMeTokenDays: ptr(-3.0)},
			want: TokenPolicy{AccessTokenMinutes: 1, RefreshTokenDays: 0.01, RememberMeTokenDays: 0.1},
		},
		{
			name: "partial update keeps other fields",
			in:   Update{RefreshTokenDays: ptr(0.02)},
			want: TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.02, RememberMeTokenDays: 1},
		},
		{
			name: "empty update",
			in:   Update{},
			want: TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 1},
		},
		{
			name: "NaN falls to minimum",
			in:   Update{RememberMeTokenDays: ptr(math.NaN())},
			want: TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			got := s.Update(context.Background(), tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Current())
		})
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	s.Update(context.Background(), Update{AccessTokenMinutes: ptr(42)})
	require.Equal(t, 42, s.Current().AccessTokenMinutes)

	got := s.Reset(context.Background())
	assert.Equal(t, s.Default(), got)
	assert.Equal(t, 15, s.Current().AccessTokenMinutes)
}

func TestNewStore_ClampsDefaults(t *testing.T) {
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := NewStore(TokenPolicy{AccessTokenMinutes: 120, RefreshTokenDays: 0, RememberMeTokenDays: 90}, l)

	assert.Equal(t, TokenPolicy{AccessTokenMinutes: 60, RefreshTokenDays: 0.01, RememberMeTokenDays: 30}, s.Current())
}

func TestStore_ConcurrentUpdatesAreNotTorn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Update(ctx, Update{AccessTokenMinutes: ptr(i%60 + 1)})
		}(i)
		go func() {
			defer wg.Done()
			p := s.Current()
			assert.Equal(t, p, p.Clamped(), "snapshot must always be within bounds")
		}()
	}
	wg.Wait()

	// field untouched by every writer
	assert.Equal(t, 0.25, s.Current().RefreshTokenDays)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "15 minutes", FormatDuration(15*time.Minute))
	assert.Equal(t, "6.0 hours", FormatDuration(6*time.Hour))
	assert.Equal(t, "1.0 days", FormatDuration(24*time.Hour))
	assert.Equal(t, "1.5 days", FormatDuration(36*time.Hour))
	assert.Equal(t, "29 minutes", FormatDuration(time.Duration(0.02*float64(24*time.Hour))))
}

func TestTokenPolicy_View(t *testing.T) {
	v := TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 1}.View()

	assert.Equal(t, "15 minutes", v.AccessTokenDisplay)
	assert.Equal(t, "6.0 hours", v.RefreshTokenDisplay)
	assert.Equal(t, "1.0 days", v.RememberMeTokenDisplay)
	assert.Equal(t, 15, v.AccessTokenMinutes)
}

// Package policy owns the mutable token-lifetime policy. Readers take an
// immutable snapshot with Current; writers replace the snapshot atomically,
// so a reader never observes a half-applied update.
package policy

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Bounds applied to every policy value.
const (
	MinAccessMinutes  = 1
	MaxAccessMinutes  = 60
	MinRefreshDays    = 0.01
	MaxRefreshDays    = 7
	MinRememberMeDays = 0.1
	MaxRememberMeDays = 30
)

const day = 24 * time.Hour

// TokenPolicy is an immutable set of token lifetimes.
type TokenPolicy struct {
	AccessTokenMinutes  int     `json:"accessTokenExpiryMinutes"`
	RefreshTokenDays    float64 `json:"refreshTokenExpiryDays"`
	RememberMeTokenDays float64 `json:"rememberMeTokenExpiryDays"`
}

// Update carries an optional new value per field; nil leaves it unchanged.
type Update struct {
	AccessTokenMinutes  *int     `json:"accessTokenExpiryMinutes,omitempty"`
	RefreshTokenDays    *float64 `json:"refreshTokenExpiryDays,omitempty"`
	RememberMeTokenDays *float64 `json:"rememberMeTokenExpiryDays,omitempty"`
}

func (p TokenPolicy) AccessTokenDuration() time.Duration {
	return time.Duration(p.AccessTokenMinutes) * time.Minute
}

func (p TokenPolicy) RefreshTokenDuration() time.Duration {
	return days(p.RefreshTokenDays)
}

func (p TokenPolicy) RememberMeTokenDuration() time.Duration {
	return days(p.RememberMeTokenDays)
}

// Clamped returns p with every field forced into its bounds.
func (p TokenPolicy) Clamped() TokenPolicy {
	return TokenPolicy{
		AccessTokenMinutes:  clampInt(p.AccessTokenMinutes, MinAccessMinutes, MaxAccessMinutes),
		RefreshTokenDays:    clampFloat(p.RefreshTokenDays, MinRefreshDays, MaxRefreshDays),
		RememberMeTokenDays: clampFloat(p.RememberMeTokenDays, MinRememberMeDays, MaxRememberMeDays),
	}
}

// Store holds the live policy and its static default.
type Store struct {
	current  atomic.Pointer[TokenPolicy]
	defaults TokenPolicy
	logger   logging.Logger
}

// NewStore creates a store whose default (and initial) policy is the clamped
// form of defaults.
func NewStore(defaults TokenPolicy, l logging.Logger) *Store {
	s := &Store{defaults: defaults.Clamped(), logger: l.With("module", "policy")}
	d := s.defaults
	s.current.Store(&d)
	return s
}

// Current returns the policy snapshot in effect.
func (s *Store) Current() TokenPolicy {
	return *s.current.Load()
}

// Default returns the static policy restored by Reset.
func (s *Store) Default() TokenPolicy {
	return s.defaults
}

// Update applies the provided fields, clamped to bounds, and returns the new
// snapshot. Concurrent updates never interleave field by field: each one is
// applied to the latest snapshot with a compare-and-swap.
func (s *Store) Update(ctx context.Context, u Update) TokenPolicy {
	for {
		old := s.current.Load()
		next := *old
		if u.AccessTokenMinutes != nil {
			next.AccessTokenMinutes = *u.AccessTokenMinutes
		}
		if u.RefreshTokenDays != nil {
			next.RefreshTokenDays = *u.RefreshTokenDays
		}
		if u.RememberMeTokenDays != nil {
			next.RememberMeTokenDays = *u.RememberMeTokenDays
		}
		next = next.Clamped()

		if s.current.CompareAndSwap(old, &next) {
			s.logger.Info(ctx, "token policy updated",
				"access_minutes", next.AccessTokenMinutes,
				"refresh_days", next.RefreshTokenDays,
				"remember_me_days", next.RememberMeTokenDays)
			return next
		}
	}
}

// Reset restores the static default policy.
func (s *Store) Reset(ctx context.Context) TokenPolicy {
	d := s.defaults
	s.current.Store(&d)
	s.logger.Info(ctx, "token policy reset to defaults")
	return d
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(day))
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

// purger is implemented by blacklists that keep expired entries until
// swept.
type purger interface {
	Purge()
}

// Sweeper periodically deletes expired ledger rows and blacklist entries.
type Sweeper struct {
	refresh    *RefreshTokenLedger
	rememberMe *RememberMeLedger
	sessions   *SessionLedger
	blacklist  blacklist.Blacklist
	interval   time.Duration
	metrics    *metrics.Metrics
	logger     logging.Logger
}

func NewSweeper(s *AuthService, interval time.Duration) *Sweeper {
	return &Sweeper{
		refresh:    s.refresh,
		rememberMe: s.rememberMe,
		sessions:   s.sessions,
		blacklist:  s.blacklist,
		interval:   interval,
		metrics:    s.metrics,
		logger:     s.logger.With("module", "sweeper"),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
// A failed sweep is logged and retried on the next tick.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.Info(ctx, "sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error(ctx, "sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) SweepOnce(ctx context.Context) error {
	n, err := w.refresh.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	w.metrics.SweptRows.WithLabelValues("refresh").Add(float64(n))

	m, err := w.rememberMe.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	w.metrics.SweptRows.WithLabelValues("remember_me").Add(float64(m))

	u, err := w.sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	w.metrics.SweptRows.WithLabelValues("user_sessions").Add(float64(u))

	if p, ok := w.blacklist.(purger); ok {
		p.Purge()
	}

	if n > 0 || m > 0 || u > 0 {
		w.logger.Info(ctx, "expired records removed", "refresh", n, "remember_me", m, "user_sessions", u)
	}
	return nil
}

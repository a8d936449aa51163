package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// DeviceSessionLifetime is how long a device login record stays active.
const DeviceSessionLifetime = 24 * time.Hour

// SessionLedger records device logins. The records are informational;
// token checks never consult them.
type SessionLedger struct {
	store Storage
	now   func() time.Time
}

func NewSessionLedger(store Storage) *SessionLedger {
	return &SessionLedger{store: store, now: time.Now}
}

// Open stores an active session for principalID on the given device.
func (l *SessionLedger) Open(ctx context.Context, principalID, deviceInfo, ipAddress string) (*models.UserSession, error) {
	if principalID == "" {
		return nil, common.ErrInvalidArgument
	}
	now := l.now().UTC()
	s := &models.UserSession{
		ID:         uuid.NewString(),
		UserID:     principalID,
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
		ExpiresAt:  now.Add(DeviceSessionLifetime),
		Active:     true,
		CreatedAt:  now,
	}
	if err := l.store.Repos.UserSessions(l.store.DB).Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create user session: %w", err)
	}
	return s, nil
}

// Active lists the live sessions of principalID, newest first.
func (l *SessionLedger) Active(ctx context.Context, principalID string) ([]models.UserSession, error) {
	return l.store.Repos.UserSessions(l.store.DB).ListActiveForUser(ctx, principalID, l.now().UTC())
}

// DeactivateAll ends every active session of principalID.
func (l *SessionLedger) DeactivateAll(ctx context.Context, principalID string) (int64, error) {
	n, err := l.store.Repos.UserSessions(l.store.DB).DeactivateAllForUser(ctx, principalID, l.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate user sessions: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes sessions that expired before now.
func (l *SessionLedger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.store.Repos.UserSessions(l.store.DB).DeleteExpired(ctx, l.now().UTC())
}

package models

import "time"

// UserSession records one device login. It is bookkeeping only: tokens are
// validated against their own ledgers, never against this table.
type UserSession struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	DeviceInfo    string     `db:"device_info"`
	IPAddress     string     `db:"ip_address"`
	ExpiresAt     time.Time  `db:"expires_at"`
	Active        bool       `db:"is_active"`
	CreatedAt     time.Time  `db:"created_at"`
	DeactivatedAt *time.Time `db:"deactivated_at"`
}

// Live reports whether the session is active and unexpired at now.
func (s *UserSession) Live(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

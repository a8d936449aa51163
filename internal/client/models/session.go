// Package models defines client-side data models used by authctl.
package models

import "time"

// Session is the token bundle of the logged-in operator as persisted
// between authctl invocations.
type Session struct {
	Username              string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	// RememberMeToken is empty for sessions opened without remember-me.
	RememberMeToken     string
	RememberMeExpiresAt time.Time
}

// AccessUsable reports whether the access token outlives now by at least
// skew.
func (s *Session) AccessUsable(now time.Time, skew time.Duration) bool {
	return s.AccessToken != "" && s.AccessTokenExpiresAt.After(now.Add(skew))
}

// User is the principal summary returned by login and registration.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	UserType    string     `json:"userType"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Policy is the server token policy with its display strings.
type Policy struct {
	AccessTokenMinutes     int     `json:"accessTokenExpiryMinutes"`
	RefreshTokenDays       float64 `json:"refreshTokenExpiryDays"`
	RememberMeTokenDays    float64 `json:"rememberMeTokenExpiryDays"`
	AccessTokenDisplay     string  `json:"accessTokenExpiryDisplay"`
	RefreshTokenDisplay    string  `json:"refreshTokenExpiryDisplay"`
	RememberMeTokenDisplay string  `json:"rememberMeTokenExpiryDisplay"`
}

// PolicyUpdate changes only the fields that are set.
type PolicyUpdate struct {
	AccessTokenMinutes  *int     `json:"accessTokenExpiryMinutes,omitempty"`
	RefreshTokenDays    *float64 `json:"refreshTokenExpiryDays,omitempty"`
	RememberMeTokenDays *float64 `json:"rememberMeTokenExpiryDays,omitempty"`
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

package services

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type LoginRequest struct {
	Username   string
	Password   string
	RememberMe bool
	// UserType restricts authentication to one population. Empty means
	// auto-detect.
	UserType models.UserType
	// DeviceInfo and IPAddress describe the client. A device session is
	// recorded only when DeviceInfo is set.
	DeviceInfo string
	IPAddress  string
}

type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LogoutRequest struct {
	RefreshToken    string
	AccessToken     string
	RememberMeToken string
	AllDevices      bool
}

// PrincipalSummary is the public view of an authenticated principal.
type PrincipalSummary struct {
	ID          string
	Username    string
	Email       string
	FirstName   string
	LastName    string
	UserType    models.UserType
	Roles       []string
	LastLoginAt *time.Time
}

// LoginResult is the token bundle of a new session. RememberMeToken and
// RememberMeExpiresAt are set only for remember-me sessions.
type LoginResult struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	RememberMeToken       string
	RememberMeExpiresAt   *time.Time
	Principal             PrincipalSummary
	// SessionID names the device session, when one was recorded.
	SessionID string
}

type RefreshResult struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	IsRememberMe          bool
}

type RegisterResult struct {
	Principal PrincipalSummary
	Session   *LoginResult
}

// TokenKind selects what ValidateToken checks.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

func summarize(p *models.Principal, t models.UserType) PrincipalSummary {
	return PrincipalSummary{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		UserType:    t,
		Roles:       p.RoleNames(),
		LastLoginAt: p.LastLoginAt,
	}
}

// Package services contains application services for authctl.
// This file defines the session service: login, registration, token refresh,
// logout and the admin policy calls, with the session persisted in the local
// metadata store between invocations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// metadata keys
const (
	keyUsername          = "username"
	keyAccessToken       = "access_token"
	keyAccessExpiresAt   = "access_expires_at"
	keyRefreshToken      = "refresh_token"
	keyRefreshExpiresAt  = "refresh_expires_at"
	keyRememberMeToken   = "remember_me_token"
	keyRememberExpiresAt = "remember_me_expires_at"
)

var sessionKeys = []string{
	keyUsername, keyAccessToken, keyAccessExpiresAt,
	keyRefreshToken, keyRefreshExpiresAt,
	keyRememberMeToken, keyRememberExpiresAt,
}

// RefreshSkew is how close to expiry an access token may get before
// AccessToken rotates it.
const RefreshSkew = 30 * time.Second

// Status describes the stored session.
type Status struct {
	Session     *models.Session
	AccessValid bool
}

// AuthService defines the session operations used by the CLI.
//
// Contract:
//   - Login/Register: authenticate against the server and persist the session.
//   - AccessToken: return a usable access token, refreshing it when needed.
//   - Logout: revoke on the server and always clear the local session.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, username string, password []byte, rememberMe bool) (*models.User, error)
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Refresh(ctx context.Context) (*models.Session, error)
	AccessToken(ctx context.Context) (string, error)
	Status(ctx context.Context) (*Status, error)
	Logout(ctx context.Context, allDevices bool) error
	GetPolicy(ctx context.Context) (*models.Policy, error)
	UpdatePolicy(ctx context.Context, u models.PolicyUpdate) (*models.Policy, error)
	ResetPolicy(ctx context.Context) (*models.Policy, error)
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db, now: time.Now}
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Login(ctx context.Context, username string, password []byte, rememberMe bool) (*models.User, error) {
	s, u, err := a.client.Login(ctx, username, password, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

func (a *authService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	s, u, err := a.client.Register(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return u, nil
}

// Refresh rotates the stored refresh token. When the refresh token is
// rejected or expired a stored remember-me secret is tried next; when that
// fails too the local session ends.
func (a *authService) Refresh(ctx context.Context) (*models.Session, error) {
	s, err := a.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	return a.refresh(ctx, s)
}

func (a *authService) refresh(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.RefreshToken == "" || !s.RefreshTokenExpiresAt.After(a.now()) {
		return a.resume(ctx, s)
	}

	next, err := a.client.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return a.resume(ctx, s)
		}
		return nil, fmt.Errorf("refresh error: %w", err)
	}

	next.Username = s.Username
	next.RememberMeToken = s.RememberMeToken
	next.RememberMeExpiresAt = s.RememberMeExpiresAt

	if err := a.saveSession(ctx, next); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return next, nil
}

// resume exchanges the stored remember-me secret for a new session once the
// refresh token is unusable. Without a usable secret the local session ends.
func (a *authService) resume(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.RememberMeToken == "" || !s.RememberMeExpiresAt.After(a.now()) {
		_ = a.clearSession(ctx)
		return nil, ErrSessionExpired
	}

	next, _, err := a.client.LoginWithRememberMe(ctx, s.RememberMeToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.clearSession(ctx)
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("remember-me login error: %w", err)
	}
	if next.Username == "" {
		next.Username = s.Username
	}

	if err := a.saveSession(ctx, next); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return next, nil
}

func (a *authService) currentSession(ctx context.Context) (*models.Session, error) {
	s, err := a.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if s.AccessUsable(a.now(), RefreshSkew) {
		return s, nil
	}
	return a.refresh(ctx, s)
}

func (a *authService) AccessToken(ctx context.Context) (string, error) {
	s, err := a.currentSession(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (a *authService) Status(ctx context.Context) (*Status, error) {
	s, err := a.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{Session: s}
	if s.AccessUsable(a.now(), 0) {
		ok, err := a.client.Validate(ctx, s.AccessToken, "access")
		if err != nil {
			return nil, fmt.Errorf("validate error: %w", err)
		}
		st.AccessValid = ok
	}
	return st, nil
}

// Logout revokes the session on the server. The local session is cleared
// even when the server call fails.
func (a *authService) Logout(ctx context.Context, allDevices bool) error {
	s, err := a.currentSession(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil
		}
		if !errors.Is(err, ErrNotLoggedIn) {
			_ = a.clearSession(ctx)
		}
		return err
	}

	serverErr := a.client.Logout(ctx, s, allDevices)
	if err := a.clearSession(ctx); err != nil {
		return fmt.Errorf("session clearing error: %w", err)
	}
	if serverErr != nil {
		return fmt.Errorf("logout error: %w", serverErr)
	}
	return nil
}

func (a *authService) GetPolicy(ctx context.Context) (*models.Policy, error) {
	tok, err := a.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.GetPolicy(ctx, tok)
}

func (a *authService) UpdatePolicy(ctx context.Context, u models.PolicyUpdate) (*models.Policy, error) {
	tok, err := a.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.UpdatePolicy(ctx, tok, u)
}

func (a *authService) ResetPolicy(ctx context.Context) (*models.Policy, error) {
	tok, err := a.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.ResetPolicy(ctx, tok)
}

// saveSession replaces the stored session in a single transaction. Empty
// fields are not stored.
func (a *authService) saveSession(ctx context.Context, s *models.Session) error {
	values := map[string][]byte{
		keyUsername:          []byte(s.Username),
		keyAccessToken:       []byte(s.AccessToken),
		keyAccessExpiresAt:   formatTime(s.AccessTokenExpiresAt),
		keyRefreshToken:      []byte(s.RefreshToken),
		keyRefreshExpiresAt:  formatTime(s.RefreshTokenExpiresAt),
		keyRememberMeToken:   []byte(s.RememberMeToken),
		keyRememberExpiresAt: formatTime(s.RememberMeExpiresAt),
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, sessionKeys...); err != nil {
			return err
		}
		for _, k := range sessionKeys {
			if len(values[k]) == 0 {
				continue
			}
			if err := repo.Set(ctx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *authService) loadSession(ctx context.Context) (*models.Session, error) {
	all, err := metadata.NewSQLiteRepository(a.db).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all[keyAccessToken]) == 0 && len(all[keyRefreshToken]) == 0 {
		return nil, ErrNotLoggedIn
	}

	s := &models.Session{
		Username:        string(all[keyUsername]),
		AccessToken:     string(all[keyAccessToken]),
		RefreshToken:    string(all[keyRefreshToken]),
		RememberMeToken: string(all[keyRememberMeToken]),
	}
	if s.AccessTokenExpiresAt, err = parseTime(all[keyAccessExpiresAt]); err != nil {
		return nil, err
	}
	if s.RefreshTokenExpiresAt, err = parseTime(all[keyRefreshExpiresAt]); err != nil {
		return nil, err
	}
	if s.RememberMeExpiresAt, err = parseTime(all[keyRememberExpiresAt]); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *authService) clearSession(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Delete(ctx, sessionKeys...)
}

func formatTime(t time.Time) []byte {
	if t.IsZero() {
		return nil
	}
	return []byte(t.UTC().Format(time.RFC3339Nano))
}

func parseTime(b []byte) (time.Time, error) {
	if len(b) == 0 {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return time.Time{}, fmt.Errorf("stored session timestamp: %w", err)
	}
	return t, nil
}

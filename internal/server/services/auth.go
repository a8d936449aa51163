package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/dmitrijs2005/gophauth/internal/server/strategies"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
)

// Deps are the collaborators of AuthService.
type Deps struct {
	Storage   Storage
	Registry  *strategies.Registry
	Issuer    *auth.Issuer
	Policy    *policy.Store
	Blacklist blacklist.Blacklist
	Throttle  throttle.Throttle
	Hasher    *cryptox.Hasher
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

type Options struct {
	// RevokeFamilyOnReuse revokes every session of a principal when one of
	// its consumed or revoked refresh secrets is presented again.
	RevokeFamilyOnReuse bool
	PasswordPolicy      cryptox.PasswordPolicy
}

// AuthService orchestrates login, refresh, logout and registration.
// Credential and token failures come back as the sentinels of package
// common; any other error is a storage failure.
type AuthService struct {
	store      Storage
	registry   *strategies.Registry
	issuer     *auth.Issuer
	policy     *policy.Store
	refresh    *RefreshTokenLedger
	rememberMe *RememberMeLedger
	sessions   *SessionLedger
	blacklist  blacklist.Blacklist
	throttle   throttle.Throttle
	hasher     *cryptox.Hasher
	metrics    *metrics.Metrics
	logger     logging.Logger
	opts       Options
}

func NewAuthService(d Deps, opts Options) *AuthService {
	if d.Throttle == nil {
		d.Throttle = throttle.Disabled{}
	}
	if opts.PasswordPolicy == (cryptox.PasswordPolicy{}) {
		opts.PasswordPolicy = cryptox.DefaultPasswordPolicy
	}
	return &AuthService{
		store:      d.Storage,
		registry:   d.Registry,
		issuer:     d.Issuer,
		policy:     d.Policy,
		refresh:    NewRefreshTokenLedger(d.Storage),
		rememberMe: NewRememberMeLedger(d.Storage, d.Issuer, d.Hasher),
		sessions:   NewSessionLedger(d.Storage),
		blacklist:  d.Blacklist,
		throttle:   d.Throttle,
		hasher:     d.Hasher,
		metrics:    d.Metrics,
		logger:     d.Logger.With("module", "auth"),
		opts:       opts,
	}
}

// RefreshLedger exposes the refresh token ledger.
func (s *AuthService) RefreshLedger() *RefreshTokenLedger { return s.refresh }

// RememberMeLedger exposes the remember-me ledger.
func (s *AuthService) RememberMeLedger() *RememberMeLedger { return s.rememberMe }

// SessionLedger exposes the device session ledger.
func (s *AuthService) SessionLedger() *SessionLedger { return s.sessions }

// Login authenticates req and opens a session. Unknown users, wrong
// passwords and inactive accounts all yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrInvalidCredentials
	}
	key := strings.ToLower(req.Username)

	blocked, err := s.throttle.Blocked(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("login throttle: %w", err)
	}
	if blocked {
		s.metrics.Logins.WithLabelValues(string(req.UserType), metrics.ResultThrottled).Inc()
		s.logger.Warn(ctx, "login throttled", "username", req.Username)
		return nil, common.ErrTooManyAttempts
	}

	p, strategy, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if err := s.throttle.Fail(ctx, key); err != nil {
			s.logger.Error(ctx, "record failed login", "error", err)
		}
		s.metrics.Logins.WithLabelValues(string(req.UserType), metrics.ResultFailure).Inc()
		s.logger.Info(ctx, "login failed", "username", req.Username)
		return nil, common.ErrInvalidCredentials
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		s.logger.Error(ctx, "reset login throttle", "error", err)
	}

	now := time.Now().UTC()
	if err := s.store.Repos.Principals(s.store.DB).TouchLastLogin(ctx, p.ID, now); err != nil {
		return nil, fmt.Errorf("touch last login: %w", err)
	}
	p.LastLoginAt = &now

	res, err := s.openSession(ctx, p, strategy, req.RememberMe)
	if err != nil {
		return nil, err
	}

	if req.DeviceInfo != "" {
		us, err := s.sessions.Open(ctx, p.ID, req.DeviceInfo, req.IPAddress)
		if err != nil {
			return nil, err
		}
		res.SessionID = us.ID
	}

	s.metrics.Logins.WithLabelValues(string(strategy.UserType()), metrics.ResultSuccess).Inc()
	s.logger.Info(ctx, "login succeeded", "user_id", p.ID, "user_type", string(strategy.UserType()), "remember_me", req.RememberMe)
	return res, nil
}

func (s *AuthService) authenticate(ctx context.Context, req LoginRequest) (*models.Principal, strategies.Strategy, error) {
	if req.UserType == "" {
		p, st, err := s.registry.TryAuthenticateAuto(ctx, req.Username, req.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("authenticate: %w", err)
		}
		return p, st, nil
	}

	st, err := s.registry.Get(req.UserType)
	if err != nil {
		return nil, nil, err
	}
	p, err := st.Validate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("authenticate: %w", err)
	}
	return p, st, nil
}

// sessionDurations returns the refresh and remember-me lifetimes for a new
// session. Remember-me sessions stretch the refresh lifetime to at least
// half the remember-me lifetime, and the remember-me lifetime to outlive
// both other tokens.
func sessionDurations(p policy.TokenPolicy, rememberMe bool) (refresh, remember time.Duration) {
	refresh = p.RefreshTokenDuration()
	if !rememberMe {
		return refresh, 0
	}
	refresh = max(refresh, p.RememberMeTokenDuration()/2)
	remember = max(p.RememberMeTokenDuration(), refresh+p.AccessTokenDuration())
	return refresh, remember
}

func (s *AuthService) openSession(ctx context.Context, p *models.Principal, st strategies.Strategy, rememberMe bool) (*LoginResult, error) {
	refreshFor, rememberFor := sessionDurations(s.policy.Current(), rememberMe)

	at, err := s.issuer.IssueAccessToken(p, st.AdditionalClaims(p))
	if err != nil {
		return nil, err
	}

	secret, err := s.issuer.IssueOpaqueSecret(auth.DefaultSecretBytes)
	if err != nil {
		return nil, err
	}
	rec, err := s.refresh.Create(ctx, NewRefreshToken{
		Secret:      secret,
		JTI:         at.JTI,
		PrincipalID: p.ID,
		Duration:    refreshFor,
		RememberMe:  rememberMe,
		UserType:    st.UserType(),
	})
	if err != nil {
		return nil, err
	}

	res := &LoginResult{
		AccessToken:           at.Token,
		AccessTokenExpiresAt:  at.ExpiresAt,
		RefreshToken:          secret,
		RefreshTokenExpiresAt: rec.ExpiresAt,
		Principal:             summarize(p, st.UserType()),
	}

	if rememberMe {
		rmSecret, rm, err := s.rememberMe.Issue(ctx, p.ID, st.UserType(), rememberFor)
		if err != nil {
			return nil, err
		}
		res.RememberMeToken = rmSecret
		res.RememberMeExpiresAt = &rm.ExpiresAt
	}
	return res, nil
}

// activePrincipal reloads a principal with fresh roles and resolves the
// strategy of the user type its session was opened as. Missing or inactive
// principals, and principals that no longer hold a role of that type, are
// reported as common.ErrInvalidOrExpiredToken.
func (s *AuthService) activePrincipal(ctx context.Context, id string, userType models.UserType) (*models.Principal, strategies.Strategy, error) {
	p, err := s.store.Repos.Principals(s.store.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidOrExpiredToken
		}
		return nil, nil, fmt.Errorf("load principal: %w", err)
	}
	if !p.Active {
		return nil, nil, common.ErrInvalidOrExpiredToken
	}
	st, err := s.registry.Get(userType)
	if err != nil || !p.HasUserType(st.UserType()) {
		return nil, nil, common.ErrInvalidOrExpiredToken
	}
	return p, st, nil
}

// Refresh rotates secret and issues a new access token carrying the
// principal's current roles. The user type and remember-me classification
// of the old session carry over.
func (s *AuthService) Refresh(ctx context.Context, secret string) (*RefreshResult, error) {
	old, err := s.refresh.Validate(ctx, secret)
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			s.onInvalidRefresh(ctx, secret)
		}
		return nil, err
	}

	p, st, err := s.activePrincipal(ctx, old.UserID, old.UserType)
	if err != nil {
		s.metrics.Refreshes.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	at, err := s.issuer.IssueAccessToken(p, st.AdditionalClaims(p))
	if err != nil {
		return nil, err
	}
	next, err := s.issuer.IssueOpaqueSecret(auth.DefaultSecretBytes)
	if err != nil {
		return nil, err
	}

	refreshFor, _ := sessionDurations(s.policy.Current(), old.RememberMe)
	rec, err := s.refresh.Rotate(ctx, secret, NewRefreshToken{
		Secret:      next,
		JTI:         at.JTI,
		PrincipalID: p.ID,
		Duration:    refreshFor,
		RememberMe:  old.RememberMe,
		UserType:    st.UserType(),
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			s.metrics.Refreshes.WithLabelValues(metrics.ResultFailure).Inc()
			s.logger.Warn(ctx, "concurrent refresh lost the race", "user_id", p.ID)
		}
		return nil, err
	}

	s.metrics.Refreshes.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Debug(ctx, "refresh token rotated", "user_id", p.ID, "record", rec.ID)

	return &RefreshResult{
		AccessToken:           at.Token,
		AccessTokenExpiresAt:  at.ExpiresAt,
		RefreshToken:          next,
		RefreshTokenExpiresAt: rec.ExpiresAt,
		IsRememberMe:          rec.RememberMe,
	}, nil
}

// onInvalidRefresh records a failed refresh and, when configured, revokes
// the whole session family of a principal whose spent secret was replayed.
// Its own failures are logged, the caller still sees the original error.
func (s *AuthService) onInvalidRefresh(ctx context.Context, secret string) {
	rec, err := s.refresh.Lookup(ctx, secret)
	if err != nil || rec.State == models.TokenActive {
		s.metrics.Refreshes.WithLabelValues(metrics.ResultFailure).Inc()
		return
	}

	s.metrics.Refreshes.WithLabelValues(metrics.ResultReuse).Inc()
	s.logger.Warn(ctx, "refresh token reuse detected", "user_id", rec.UserID, "state", string(rec.State))

	if !s.opts.RevokeFamilyOnReuse {
		return
	}
	n, err := s.refresh.RevokeAll(ctx, rec.UserID)
	if err != nil {
		s.logger.Error(ctx, "revoke session family", "user_id", rec.UserID, "error", err)
		return
	}
	s.logger.Warn(ctx, "session family revoked", "user_id", rec.UserID, "revoked", n)
}

// LoginWithRememberMe exchanges a remember-me secret, once, for a new
// remember-me session of the same user type.
func (s *AuthService) LoginWithRememberMe(ctx context.Context, secret string) (*LoginResult, error) {
	rec, err := s.rememberMe.Consume(ctx, secret)
	if err != nil {
		return nil, err
	}

	p, st, err := s.activePrincipal(ctx, rec.UserID, rec.UserType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.Repos.Principals(s.store.DB).TouchLastLogin(ctx, p.ID, now); err != nil {
		return nil, fmt.Errorf("touch last login: %w", err)
	}
	p.LastLoginAt = &now

	res, err := s.openSession(ctx, p, st, true)
	if err != nil {
		return nil, err
	}
	s.metrics.Logins.WithLabelValues(string(st.UserType()), metrics.ResultSuccess).Inc()
	s.logger.Info(ctx, "remember-me login succeeded", "user_id", p.ID)
	return res, nil
}

// Logout revokes what the request names: the refresh secret, the
// remember-me secret, and the access token's jti until its natural expiry.
// AllDevices revokes every session of the principal instead and deactivates
// its device sessions. Secrets of another principal than the access token's
// subject are left alone. The result reports whether anything was revoked.
func (s *AuthService) Logout(ctx context.Context, req LogoutRequest) (bool, error) {
	var principalID string
	done := false

	if req.AccessToken != "" {
		claims, err := s.issuer.Inspect(req.AccessToken)
		if err != nil {
			s.logger.Debug(ctx, "logout with unreadable access token", "error", err)
		} else {
			principalID = claims.Subject
			if claims.JTI != "" && !claims.ExpiresAt.IsZero() {
				if err := s.blacklist.Add(ctx, claims.JTI, claims.ExpiresAt); err != nil {
					return false, fmt.Errorf("blacklist access token: %w", err)
				}
				done = true
			}
		}
	}

	if req.RefreshToken != "" {
		rec, err := s.refresh.Lookup(ctx, req.RefreshToken)
		switch {
		case err == nil && principalID != "" && rec.UserID != principalID:
			s.logger.Warn(ctx, "logout with refresh token of another principal", "user_id", principalID)
		case err == nil:
			if principalID == "" {
				principalID = rec.UserID
			}
			ok, err := s.refresh.Revoke(ctx, req.RefreshToken)
			if err != nil {
				return false, err
			}
			done = done || ok
		case !errors.Is(err, common.ErrInvalidOrExpiredToken):
			return false, err
		}
	}

	if req.RememberMeToken != "" {
		rec, err := s.rememberMe.Validate(ctx, req.RememberMeToken)
		switch {
		case err == nil && principalID != "" && rec.UserID != principalID:
			s.logger.Warn(ctx, "logout with remember-me token of another principal", "user_id", principalID)
		case err == nil:
			if principalID == "" {
				principalID = rec.UserID
			}
			_, err := s.rememberMe.Consume(ctx, req.RememberMeToken)
			switch {
			case err == nil:
				done = true
			case !errors.Is(err, common.ErrInvalidOrExpiredToken):
				return false, err
			}
		case !errors.Is(err, common.ErrInvalidOrExpiredToken):
			return false, err
		}
	}

	if req.AllDevices && principalID != "" {
		n, err := s.refresh.RevokeAll(ctx, principalID)
		if err != nil {
			return false, err
		}
		m, err := s.rememberMe.InvalidateAll(ctx, principalID)
		if err != nil {
			return false, err
		}
		u, err := s.sessions.DeactivateAll(ctx, principalID)
		if err != nil {
			return false, err
		}
		done = done || n > 0 || m > 0 || u > 0
		s.metrics.Logouts.WithLabelValues("all").Inc()
		s.logger.Info(ctx, "logout from all devices", "user_id", principalID,
			"refresh_revoked", n, "remember_me_revoked", m, "sessions_deactivated", u)
		return done, nil
	}

	if done {
		s.metrics.Logouts.WithLabelValues("single").Inc()
		s.logger.Info(ctx, "logout", "user_id", principalID)
	}
	return done, nil
}

// Register creates an end-user with the Customer role and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := validateRegistration(req, s.opts.PasswordPolicy); err != nil {
		s.metrics.Registrations.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p, err := s.store.Repos.Principals(s.store.DB).Create(ctx, &models.Principal{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Active:       true,
	}, []string{models.RoleCustomer})
	if err != nil {
		s.metrics.Registrations.WithLabelValues(metrics.ResultFailure).Inc()
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}
	s.metrics.Registrations.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info(ctx, "principal registered", "user_id", p.ID, "username", p.Username)

	session, err := s.Login(ctx, LoginRequest{
		Username: req.Username,
		Password: req.Password,
		UserType: models.UserTypeEndUser,
	})
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Principal: session.Principal, Session: session}, nil
}

// Authenticate verifies an access token and rejects blacklisted ones with
// common.ErrTokenRevoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.issuer.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.Contains(ctx, claims.JTI)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		s.metrics.BlacklistHits.Inc()
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

// ValidateToken reports whether token is currently usable as kind. Only
// storage failures and an unknown kind are errors.
func (s *AuthService) ValidateToken(ctx context.Context, token string, kind TokenKind) (bool, error) {
	switch kind {
	case TokenKindAccess:
		_, err := s.Authenticate(ctx, token)
		return tokenVerdict(err)
	case TokenKindRefresh:
		_, err := s.refresh.Validate(ctx, token)
		return tokenVerdict(err)
	default:
		return false, fmt.Errorf("%w: token kind %q", common.ErrInvalidArgument, kind)
	}
}

func tokenVerdict(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrInvalidOrExpiredToken):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) GetPolicy() policy.TokenPolicy { return s.policy.Current() }

func (s *AuthService) UpdatePolicy(ctx context.Context, u policy.Update) policy.TokenPolicy {
	return s.policy.Update(ctx, u)
}

func (s *AuthService) ResetPolicy(ctx context.Context) policy.TokenPolicy {
	return s.policy.Reset(ctx)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// UserAgent identifies authctl to the server, which records it as the
// device of a login.
const UserAgent = "authctl"

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginResponse struct {
	envelope
	AccessToken           string      `json:"accessToken"`
	ExpiresAt             time.Time   `json:"expiresAt"`
	RefreshTokenExpiresAt time.Time   `json:"refreshTokenExpiresAt"`
	RememberMeExpiresAt   *time.Time  `json:"rememberMeExpiresAt"`
	User                  models.User `json:"user"`
}

type refreshResponse struct {
	envelope
	AccessToken           string    `json:"accessToken"`
	ExpiresAt             time.Time `json:"expiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type validateResponse struct {
	envelope
	Valid bool `json:"valid"`
}

type policyResponse struct {
	envelope
	Config models.Policy `json:"config"`
}

// HTTPClient is the Client implementation over the JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type request struct {
	method string
	path   string
	body   any
	bearer string
}

// do sends req and decodes a 2xx body into out. Cookies of the response are
// returned for the session endpoints.
func (c *HTTPClient) do(ctx context.Context, req request, out any) ([]*http.Cookie, error) {
	var body io.Reader = http.NoBody
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, err
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("User-Agent", UserAgent)
	if req.bearer != "" {
		hr.Header.Set(common.AuthorizationHeader, common.BearerPrefix+req.bearer)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Cookies(), nil
}

func statusError(status int, body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w (%d): %s", ErrRejected, status, msg)
	}
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/healthz"}, nil)
	return err
}

func (c *HTTPClient) session(username string, lr *loginResponse, cookies []*http.Cookie) *models.Session {
	s := &models.Session{
		Username:              username,
		AccessToken:           lr.AccessToken,
		AccessTokenExpiresAt:  lr.ExpiresAt,
		RefreshToken:          cookieValue(cookies, common.RefreshTokenCookie),
		RefreshTokenExpiresAt: lr.RefreshTokenExpiresAt,
		RememberMeToken:       cookieValue(cookies, common.RememberMeCookie),
	}
	if lr.RememberMeExpiresAt != nil {
		s.RememberMeExpiresAt = *lr.RememberMeExpiresAt
	}
	return s
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte, rememberMe bool) (*models.Session, *models.User, error) {
	var lr loginResponse
	cookies, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body: map[string]any{
			"username":   username,
			"password":   string(password),
			"rememberMe": rememberMe,
		},
	}, &lr)
	if err != nil {
		return nil, nil, err
	}
	return c.session(lr.User.Username, &lr, cookies), &lr.User, nil
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.Session, *models.User, error) {
	var lr loginResponse
	cookies, err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", body: r}, &lr)
	if err != nil {
		return nil, nil, err
	}
	return c.session(lr.User.Username, &lr, cookies), &lr.User, nil
}

func (c *HTTPClient) LoginWithRememberMe(ctx context.Context, rememberMeToken string) (*models.Session, *models.User, error) {
	var lr loginResponse
	cookies, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/remember",
		body:   map[string]string{"rememberMeToken": rememberMeToken},
	}, &lr)
	if err != nil {
		return nil, nil, err
	}
	return c.session(lr.User.Username, &lr, cookies), &lr.User, nil
}

// Refresh returns a session with the rotated tokens. Username and the
// remember-me fields are left for the caller to carry over.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	var rr refreshResponse
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/refresh",
		body:   map[string]string{"refreshToken": refreshToken},
	}, &rr)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		AccessToken:           rr.AccessToken,
		AccessTokenExpiresAt:  rr.ExpiresAt,
		RefreshToken:          rr.RefreshToken,
		RefreshTokenExpiresAt: rr.RefreshTokenExpiresAt,
	}, nil
}

func (c *HTTPClient) Logout(ctx context.Context, s *models.Session, allDevices bool) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/logout",
		bearer: s.AccessToken,
		body: map[string]any{
			"refreshToken":    s.RefreshToken,
			"rememberMeToken": s.RememberMeToken,
			"allDevices":      allDevices,
		},
	}, nil)
	return err
}

func (c *HTTPClient) Validate(ctx context.Context, token, kind string) (bool, error) {
	var vr validateResponse
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/validate",
		body:   map[string]string{"token": token, "tokenType": kind},
	}, &vr)
	if err != nil {
		return false, err
	}
	return vr.Valid, nil
}

func (c *HTTPClient) policy(ctx context.Context, method, accessToken string, body any) (*models.Policy, error) {
	var pr policyResponse
	_, err := c.do(ctx, request{method: method, path: "/api/admin/token-config", bearer: accessToken, body: body}, &pr)
	if err != nil {
		return nil, err
	}
	return &pr.Config, nil
}

func (c *HTTPClient) GetPolicy(ctx context.Context, accessToken string) (*models.Policy, error) {
	return c.policy(ctx, http.MethodGet, accessToken, nil)
}

func (c *HTTPClient) UpdatePolicy(ctx context.Context, accessToken string, u models.PolicyUpdate) (*models.Policy, error) {
	return c.policy(ctx, http.MethodPut, accessToken, u)
}

func (c *HTTPClient) ResetPolicy(ctx context.Context, accessToken string) (*models.Policy, error) {
	return c.policy(ctx, http.MethodDelete, accessToken, nil)
}

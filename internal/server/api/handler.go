package api

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
	UserType   string `json:"userType"`
	// DeviceInfo overrides the User-Agent header as the device description.
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	UserType    string     `json:"userType"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// loginResponse never carries the refresh or remember-me secrets; they
// travel in HttpOnly cookies only.
type loginResponse struct {
	envelope
	AccessToken           string       `json:"accessToken"`
	ExpiresAt             time.Time    `json:"expiresAt"`
	RefreshTokenExpiresAt time.Time    `json:"refreshTokenExpiresAt"`
	RememberMeExpiresAt   *time.Time   `json:"rememberMeExpiresAt,omitempty"`
	SessionID             string       `json:"sessionId,omitempty"`
	User                  userResponse `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	envelope
	AccessToken           string    `json:"accessToken"`
	ExpiresAt             time.Time `json:"expiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	IsRememberMe          bool      `json:"isRememberMe"`
}

type rememberMeRequest struct {
	RememberMeToken string `json:"rememberMeToken"`
}

type logoutRequest struct {
	RefreshToken    string `json:"refreshToken"`
	RememberMeToken string `json:"rememberMeToken"`
	AllDevices      bool   `json:"allDevices"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type validateRequest struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

type validateResponse struct {
	envelope
	Valid bool `json:"valid"`
}

type policyResponse struct {
	envelope
	Config policy.View `json:"config"`
}

func toUser(p services.PrincipalSummary) userResponse {
	return userResponse{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		UserType:    string(p.UserType),
		Roles:       p.Roles,
		LastLoginAt: p.LastLoginAt,
	}
}

// writeSession sets the session cookies and writes the login body. Cookies
// of remember-me sessions expire with the remember-me token, all others
// are session cookies.
func (s *Server) writeSession(w http.ResponseWriter, status int, msg string, res *services.LoginResult) {
	var expires time.Time
	if res.RememberMeExpiresAt != nil {
		expires = *res.RememberMeExpiresAt
	}
	http.SetCookie(w, s.authCookie(common.RefreshTokenCookie, res.RefreshToken, expires))
	if res.RememberMeToken != "" {
		http.SetCookie(w, s.authCookie(common.RememberMeCookie, res.RememberMeToken, expires))
	}

	writeJSON(w, status, loginResponse{
		envelope:              envelope{Success: true, Message: msg},
		AccessToken:           res.AccessToken,
		ExpiresAt:             res.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: res.RefreshTokenExpiresAt,
		RememberMeExpiresAt:   res.RememberMeExpiresAt,
		SessionID:             res.SessionID,
		User:                  toUser(res.Principal),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	ut := models.UserType(req.UserType)
	if parsed, ok := models.ParseUserType(req.UserType); ok {
		ut = parsed
	}

	device := req.DeviceInfo
	if device == "" {
		device = r.UserAgent()
	}

	res, err := s.svc.Login(r.Context(), services.LoginRequest{
		Username:   req.Username,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		UserType:   ut,
		DeviceInfo: device,
		IPAddress:  clientIP(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, http.StatusOK, "Login successful", res)
}

func (s *Server) rememberMe(w http.ResponseWriter, r *http.Request) {
	var req rememberMeRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	secret := cookieOr(r, req.RememberMeToken, common.RememberMeCookie)
	if secret == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Remember-me token is required"})
		return
	}

	res, err := s.svc.LoginWithRememberMe(r.Context(), secret)
	if err != nil {
		http.SetCookie(w, s.deletionCookie(common.RememberMeCookie))
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, http.StatusOK, "Login successful", res)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	secret := cookieOr(r, req.RefreshToken, common.RefreshTokenCookie)
	if secret == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Refresh token is required"})
		return
	}

	res, err := s.svc.Refresh(r.Context(), secret)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var expires time.Time
	if res.IsRememberMe {
		expires = res.RefreshTokenExpiresAt
	}
	http.SetCookie(w, s.authCookie(common.RefreshTokenCookie, res.RefreshToken, expires))

	writeJSON(w, http.StatusOK, refreshResponse{
		envelope:              envelope{Success: true, Message: "Token refreshed"},
		AccessToken:           res.AccessToken,
		ExpiresAt:             res.AccessTokenExpiresAt,
		RefreshToken:          res.RefreshToken,
		RefreshTokenExpiresAt: res.RefreshTokenExpiresAt,
		IsRememberMe:          res.IsRememberMe,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	done, err := s.svc.Logout(r.Context(), services.LogoutRequest{
		AccessToken:     bearerToken(r),
		RefreshToken:    cookieOr(r, req.RefreshToken, common.RefreshTokenCookie),
		RememberMeToken: cookieOr(r, req.RememberMeToken, common.RememberMeCookie),
		AllDevices:      req.AllDevices,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, s.deletionCookie(common.RefreshTokenCookie))
	http.SetCookie(w, s.deletionCookie(common.RememberMeCookie))

	if !done {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Logout failed"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.svc.Register(r.Context(), services.RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, http.StatusCreated, "Registration successful", res.Session)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Token is required"})
		return
	}
	kind := services.TokenKind(req.TokenType)
	if kind == "" {
		kind = services.TokenKindAccess
	}

	ok, err := s.svc.ValidateToken(r.Context(), req.Token, kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{envelope: envelope{Success: true}, Valid: ok})
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, policyResponse{
		envelope: envelope{Success: true},
		Config:   s.svc.GetPolicy().View(),
	})
}

func (s *Server) updatePolicy(w http.ResponseWriter, r *http.Request) {
	var u policy.Update
	if err := readJSON(w, r, &u); err != nil {
		s.fail(w, r, err)
		return
	}
	p := s.svc.UpdatePolicy(r.Context(), u)

	claims, _ := ClaimsFromContext(r.Context())
	s.logger.Info(r.Context(), "token policy updated", "by", claims.Username)

	writeJSON(w, http.StatusOK, policyResponse{
		envelope: envelope{Success: true, Message: "Token configuration updated"},
		Config:   p.View(),
	})
}

func (s *Server) resetPolicy(w http.ResponseWriter, r *http.Request) {
	p := s.svc.ResetPolicy(r.Context())
	writeJSON(w, http.StatusOK, policyResponse{
		envelope: envelope{Success: true, Message: "Token configuration reset to defaults"},
		Config:   p.View(),
	})
}

package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, username string, password []byte, rememberMe bool) (*models.Session, *models.User, error)
	Register(ctx context.Context, r models.Registration) (*models.Session, *models.User, error)
	// LoginWithRememberMe exchanges a remember-me secret for a new session.
	LoginWithRememberMe(ctx context.Context, rememberMeToken string) (*models.Session, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	Logout(ctx context.Context, s *models.Session, allDevices bool) error
	Validate(ctx context.Context, token, kind string) (bool, error)
	GetPolicy(ctx context.Context, accessToken string) (*models.Policy, error)
	UpdatePolicy(ctx context.Context, accessToken string, u models.PolicyUpdate) (*models.Policy, error)
	ResetPolicy(ctx context.Context, accessToken string) (*models.Policy, error)
}

// Package api exposes the authentication core over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	// CookieSecure sets the Secure attribute on the auth cookies.
	CookieSecure   bool
	RequestTimeout time.Duration
}

type Server struct {
	address string
	svc     *services.AuthService
	metrics *metrics.Metrics
	logger  logging.Logger
	opts    Options
}

func NewServer(a string, l logging.Logger, svc *services.AuthService, m *metrics.Metrics, opts Options) *Server {
	return &Server{
		address: a,
		svc:     svc,
		metrics: m,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
}

// Router builds the HTTP routes. It is exported for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/remember", s.rememberMe)
		r.Post("/refresh", s.refresh)
		r.Post("/register", s.register)
		r.Post("/validate", s.validate)

		r.With(s.accessTokenMiddleware).Post("/logout", s.logout)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)
		r.Use(requireRole(models.RoleAdmin, models.RoleSuperAdmin))

		r.Get("/token-config", s.getPolicy)
		r.Put("/token-config", s.updatePolicy)
		r.Delete("/token-config", s.resetPolicy)
	})

	return r
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

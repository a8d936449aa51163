// Package server wires the authentication service together: storage
// backend, blacklist and throttle backends, the background sweeper and the
// HTTP API. It also handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/api"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/strategies"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	blacklistPrefix = "gophauth:blacklist:"
	throttlePrefix  = "gophauth:throttle:"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	service *services.AuthService
	sweeper *services.Sweeper
	server  *api.Server
	closers []func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	store, err := app.initStorage(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	var rdb *redis.Client
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			app.close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		logger.Info(ctx, "using redis for blacklist and login throttle", "addr", c.RedisAddr)
	}

	m := metrics.New()
	ps := policy.NewStore(policy.TokenPolicy{
		AccessTokenMinutes:  c.AccessTokenMinutes,
		RefreshTokenDays:    c.RefreshTokenDays,
		RememberMeTokenDays: c.RememberMeTokenDays,
	}, logger)
	hasher := cryptox.NewHasher(cryptox.DefaultParams)

	app.service = services.NewAuthService(services.Deps{
		Storage:   store,
		Registry:  strategies.NewDefaultRegistry(store.Repos.Principals(store.DB), hasher, logger),
		Issuer:    auth.NewIssuer(c.SecretKey, c.Issuer, c.Audience, ps),
		Policy:    ps,
		Blacklist: app.newBlacklist(rdb),
		Throttle:  newThrottle(c, rdb),
		Hasher:    hasher,
		Metrics:   m,
		Logger:    logger,
	}, services.Options{RevokeFamilyOnReuse: c.RevokeFamilyOnReuse})

	if err := app.service.SeedAdmin(ctx, c.SeedAdminUsername, c.SeedAdminPassword); err != nil {
		app.close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	app.sweeper = services.NewSweeper(app.service, c.CleanupInterval)
	app.server = api.NewServer(c.HTTPAddr, logger, app.service, m, api.Options{
		CookieSecure:   c.CookieSecure,
		RequestTimeout: c.RequestTimeout,
	})
	return app, nil
}

// initStorage opens Postgres and applies migrations, or falls back to the
// in-memory backend when no DSN is configured.
func (app *App) initStorage(ctx context.Context) (services.Storage, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		store, _ := services.NewMemoryStorage()
		return store, nil
	}

	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return services.Storage{}, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	store := services.NewPostgresStorage(db)
	if err := store.Repos.RunMigrations(ctx, db); err != nil {
		return services.Storage{}, fmt.Errorf("db migrations error: %w", err)
	}
	app.logStats(ctx, db)
	return store, nil
}

func (app *App) logStats(ctx context.Context, db *sql.DB) {
	s := db.Stats()
	app.logger.Debug(ctx, "database ready", "max_open", s.MaxOpenConnections, "open", s.OpenConnections)
}

func (app *App) newBlacklist(rdb *redis.Client) blacklist.Blacklist {
	if rdb != nil {
		return blacklist.NewRedis(rdb, blacklistPrefix)
	}
	bl := blacklist.NewMemory()
	app.closers = append(app.closers, bl.Stop)
	return bl
}

func newThrottle(c *config.Config, rdb *redis.Client) throttle.Throttle {
	switch {
	case c.MaxLoginAttempts <= 0:
		return throttle.Disabled{}
	case rdb != nil:
		return throttle.NewRedis(rdb, throttlePrefix, c.MaxLoginAttempts, c.LoginLockout)
	default:
		return throttle.NewMemory(c.MaxLoginAttempts, c.LoginLockout)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and sweeps expired tokens until a signal arrives or
// either of them fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(gctx) })
	g.Go(func() error { return app.sweeper.Run(gctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

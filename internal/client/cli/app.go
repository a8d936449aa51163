package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

// ServiceFactory builds the session service for cfg. The returned func
// releases whatever the service holds open.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (services.AuthService, func() error, error)

// NewService opens the SQLite session store at cfg.DatabasePath and binds an
// HTTP client for cfg.ServerURL.
func NewService(ctx context.Context, cfg *config.Config) (services.AuthService, func() error, error) {
	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, nil, fmt.Errorf("session store directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}

	c := client.NewHTTPClient(cfg.ServerURL, cfg.Timeout)
	return services.NewAuthService(c, db), db.Close, nil
}

type App struct {
	config  *config.Config
	factory ServiceFactory
	svc     services.AuthService
	closer  func() error
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(cfg *config.Config, factory ServiceFactory, in io.Reader, out io.Writer) *App {
	return &App{
		config:  cfg,
		factory: factory,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run executes the command line args and releases the session store.
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *App) open(ctx context.Context) error {
	if a.svc != nil {
		return nil
	}
	svc, closer, err := a.factory(ctx, a.config)
	if err != nil {
		return err
	}
	a.svc, a.closer = svc, closer
	return nil
}

func (a *App) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer()
	a.svc, a.closer = nil, nil
	return err
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/strategies"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "services-test-secret-key-32-bytes-long!!"
	testPassword = "Secret123!"
)

// cheap argon2id parameters keep the suite fast
var testHasher = cryptox.NewHasher(cryptox.Params{Memory: 1024, Time: 1, Parallelism: 1})

func discard() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testEnv struct {
	svc       *AuthService
	mem       *repomanager.MemoryRepositoryManager
	policy    *policy.Store
	issuer    *auth.Issuer
	blacklist *blacklist.Memory
	metrics   *metrics.Metrics
}

func newTestEnv(t *testing.T, opts Options, th throttle.Throttle) *testEnv {
	t.Helper()

	l := discard()
	store, mem := NewMemoryStorage()
	ps := policy.NewStore(policy.TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 1}, l)
	iss := auth.NewIssuer(testSecret, "gophauth", "gophauth-clients", ps)
	bl := blacklist.NewMemory()
	t.Cleanup(bl.Stop)
	m := metrics.New()

	svc := NewAuthService(Deps{
		Storage:   store,
		Registry:  strategies.NewDefaultRegistry(mem.Principals(nil), testHasher, l),
		Issuer:    iss,
		Policy:    ps,
		Blacklist: bl,
		Throttle:  th,
		Hasher:    testHasher,
		Metrics:   m,
		Logger:    l,
	}, opts)

	return &testEnv{svc: svc, mem: mem, policy: ps, issuer: iss, blacklist: bl, metrics: m}
}

func (e *testEnv) addPrincipal(t *testing.T, username string, roles ...string) *models.Principal {
	t.Helper()
	hash, err := testHasher.Hash(testPassword)
	require.NoError(t, err)

	p, err := e.mem.Principals(nil).Create(context.Background(), &models.Principal{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Active:       true,
	}, roles)
	require.NoError(t, err)
	return p
}

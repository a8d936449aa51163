package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/remembermetokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/usersessions"
)

// MemoryRepositoryManager serves process-local repositories. The DBTX
// argument is ignored; every call returns the same instance, so pair it with
// dbx.NopTransactor.
type MemoryRepositoryManager struct {
	principals    *principals.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	rememberMe    *remembermetokens.MemoryRepository
	sessions      *usersessions.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		principals:    principals.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		rememberMe:    remembermetokens.NewMemoryRepository(),
		sessions:      usersessions.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Principals(dbx.DBTX) principals.Repository {
	return m.principals
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) RememberMeTokens(dbx.DBTX) remembermetokens.Repository {
	return m.rememberMe
}

func (m *MemoryRepositoryManager) UserSessions(dbx.DBTX) usersessions.Repository {
	return m.sessions
}

// PrincipalStore exposes the concrete principal repository for seeding and
// account administration in tests.
func (m *MemoryRepositoryManager) PrincipalStore() *principals.MemoryRepository {
	return m.principals
}

// Package services implements the authentication core: the refresh and
// remember-me ledgers, login/refresh/logout/registration orchestration, and
// the background sweeper.
package services

import (
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Storage bundles a repository manager with the handle it is bound to and
// the transactor used for multi-statement operations.
type Storage struct {
	Repos repomanager.RepositoryManager
	DB    dbx.DBTX
	Tx    dbx.Transactor
}

func NewPostgresStorage(db *sql.DB) Storage {
	return Storage{
		Repos: repomanager.NewPostgresRepositoryManager(),
		DB:    db,
		Tx:    dbx.SQLTransactor{DB: db},
	}
}

func NewMemoryStorage() (Storage, *repomanager.MemoryRepositoryManager) {
	m := repomanager.NewMemoryRepositoryManager()
	return Storage{Repos: m, Tx: dbx.NopTransactor{}}, m
}

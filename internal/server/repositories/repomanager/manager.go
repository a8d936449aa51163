// Package repomanager vends storage backends for the authentication core.
// Each manager hands out repositories bound to a dbx.DBTX so the same
// service code runs inside or outside a transaction.
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

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Principals(db dbx.DBTX) principals.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RememberMeTokens(db dbx.DBTX) remembermetokens.Repository
	UserSessions(db dbx.DBTX) usersessions.Repository
}

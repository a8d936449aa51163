package dbx

import (
	"context"
	"database/sql"
)

// Transactor runs fn atomically. Services depend on it instead of *sql.DB so
// the same code path serves both the PostgreSQL and the in-memory backends.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLTransactor runs fn inside a database/sql transaction via WithTx.
type SQLTransactor struct {
	DB   *sql.DB
	Opts *sql.TxOptions
}

func (t SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, t.DB, t.Opts, fn)
}

// NopTransactor calls fn directly with a nil handle. It is used with
// repositories that do not touch DBTX and provide their own atomicity.
type NopTransactor struct{}

func (NopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, nil)
}

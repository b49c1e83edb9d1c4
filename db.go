package studyplan

import (
	"context"
	"database/sql"
)

type Database interface {
	DB() *sql.DB
	Migrate() error
	Close() error
}

// Transactor runs fn inside a database transaction. Repositories called with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(context.Context) error) error
}

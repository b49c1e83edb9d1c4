// Package sqlite implements studyplan's Database and repository interfaces
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/benjamonnguyen/studyplan"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type Database struct {
	conn *sql.DB
}

var _ studyplan.Database = (*Database)(nil)

// Open connects to the sqlite file at url, creating its directory if needed.
// Foreign keys are always enforced.
func Open(url string) (*Database, error) {
	if url == "" {
		return nil, fmt.Errorf("provide database url")
	}
	if path := strings.TrimPrefix(url, "file:"); !strings.HasPrefix(path, ":memory:") {
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dsn(url))
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{
		conn: conn,
	}, nil
}

func dsn(url string) string {
	if strings.Contains(url, "?") {
		return url + "&" + pragmas
	}
	return url + "?" + pragmas
}

func (db *Database) DB() *sql.DB {
	return db.conn
}

// Transactor returns a transactor over the connection and the getter repos use
// to join its transactions.
func (db *Database) Transactor() (studyplan.Transactor, txStdLib.DBGetter) {
	return txStdLib.NewTransactor(db.conn, txStdLib.NestedTransactionsSavepoints)
}

// Migrate applies every embedded migration not yet applied.
func (db *Database) Migrate() error {
	m, err := db.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Rollback reverts every applied migration.
func (db *Database) Rollback() error {
	m, err := db.migrator()
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func (db *Database) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	d, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", d)
}

func (db *Database) Close() error {
	return db.conn.Close()
}

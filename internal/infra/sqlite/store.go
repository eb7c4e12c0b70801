// Package sqlite implements the persistence ports on an embedded SQLite
// database. A single Store value backs both the bank and auth ports; every
// multi-step mutation runs through ExecTx so readers never observe a partial
// write.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rafaelmp/banco-digital-go/internal/port"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting the same query
// code run standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite adapter for the engine's persistence ports.
type Store struct {
	db     *sql.DB
	q      DBTX
	logger *zap.Logger
}

// New opens (creating if needed) the database at path, applies pending
// migrations and returns a ready Store. The DSN enables foreign keys and
// serializes writers with an immediate transaction lock.
func New(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Writes are serialized at the database level, one connection avoids
	// SQLITE_BUSY churn under concurrent mutations.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, q: db, logger: logger}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// ExecTx runs fn against a Store bound to a single write transaction. Any
// error from fn rolls the transaction back and is returned unchanged.
func (s *Store) ExecTx(ctx context.Context, fn func(port.BankStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &Store{db: s.db, q: tx, logger: s.logger}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
	}
	return false
}

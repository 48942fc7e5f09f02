// Package cache implements the local cache store: an embedded sqlite
// database with the cached_indexes and searchable_hashes tables, managed
// through goose migrations and accessed through repository interfaces.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/cache/hashes"
	"github.com/dmitrijs2005/mediasync/internal/cache/indexes"
	"github.com/dmitrijs2005/mediasync/internal/cache/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Store bundles the open database handle with the two table repositories.
type Store struct {
	DB      *sql.DB
	Indexes indexes.Repository
	Hashes  hashes.Repository
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the cache database at dsn, applies
// pending migrations, and returns the repositories. Safe to call more than
// once with the same dsn; only the first migration run has effect.
func InitDatabase(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache db: %w", err)
	}

	return &Store{
		DB:      db,
		Indexes: indexes.NewSQLiteRepository(db),
		Hashes:  hashes.NewSQLiteRepository(db),
	}, nil
}

// Reset tears down both tables and recreates them empty. Used by the
// rebuild operation; the caller repopulates with a subsequent full load.
func (s *Store) Reset(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.DownToContext(ctx, s.DB, ".", 0); err != nil {
		return fmt.Errorf("failed to drop cache tables: %w", err)
	}
	return goose.UpContext(ctx, s.DB, ".")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

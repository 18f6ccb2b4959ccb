// Package repomanager provides RepositoryManager implementations for
// PostgreSQL (migrations via goose) and for the in-memory store.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/grammarcheck/internal/dbx"
	"github.com/dmitrijs2005/grammarcheck/internal/server/migrations"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX {
	return m.db
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the manager's database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager wraps an open database handle.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database handle")
	}
	return &PostgresRepositoryManager{db: db}, nil
}

// OpenPostgres opens a pgx-backed *sql.DB for dsn and verifies the
// connection before returning the manager.
func OpenPostgres(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	return NewPostgresRepositoryManager(db)
}

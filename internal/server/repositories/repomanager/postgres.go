// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/migrations"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/resources"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/units"
	"github.com/dmitrijs2005/studyportal/internal/server/repositories/years"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Resources returns a resources.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Resources(db dbx.DBTX) resources.Repository {
	return resources.NewPostgresRepository(db)
}

// Years returns a years.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Years(db dbx.DBTX) years.Repository {
	return years.NewPostgresRepository(db)
}

// Units returns a units.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Units(db dbx.DBTX) units.Repository {
	return units.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks that it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/oily/oily-api/infrastructure/service/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations is the schema shipped with the binary, flattened so goose sees
// the .sql files at its root.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrator applies goose migrations against the member database.
type Migrator struct {
	provider *goose.Provider
	logger   logger.Logger
}

func NewMigrator(db *sql.DB, files fs.FS, log logger.Logger) (*Migrator, error) {
	provider, err := goose.NewProvider(database.DialectPostgres, db, files)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return &Migrator{provider: provider, logger: log}, nil
}

// Versions lists the migration versions known to the provider, ascending.
func (m *Migrator) Versions() []int64 {
	sources := m.provider.ListSources()
	versions := make([]int64, 0, len(sources))
	for _, s := range sources {
		versions = append(versions, s.Version)
	}
	return versions
}

func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.report(ctx, r)
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down reverts the most recent applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.report(ctx, result)
	}
	if err != nil {
		return fmt.Errorf("failed to revert migration: %w", err)
	}
	return nil
}

func (m *Migrator) report(ctx context.Context, r *goose.MigrationResult) {
	if r == nil || r.Source == nil {
		return
	}
	fields := map[string]interface{}{
		"version":   r.Source.Version,
		"direction": r.Direction,
	}
	if r.Error != nil {
		m.logger.Error(ctx, "Migration failed", r.Error, fields)
		return
	}
	logger.LogPerformance(ctx, m.logger, "migration_"+r.Direction, r.Duration, fields)
}

package migration

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"oltmap/internal/errors"
)

//go:embed sql/*.sql
var migrations embed.FS

const migrationsDir = "sql"

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version(ctx context.Context, db *sqlx.DB) (int64, error)
}

// MigrationRunner applies the embedded goose migrations
type MigrationRunner struct {
	logger *slog.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *slog.Logger) *MigrationRunner {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	return &MigrationRunner{logger: logger}
}

// Run applies every pending migration
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set migration dialect")
	}

	before, _ := goose.GetDBVersionContext(ctx, db.DB)
	if err := goose.UpContext(ctx, db.DB, migrationsDir); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to apply migrations"))
	}
	after, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to read schema version"))
	}

	r.logger.Info("migrations applied", "from_version", before, "to_version", after)
	return nil
}

// Version returns the current schema version
func (r *MigrationRunner) Version(ctx context.Context, db *sqlx.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, errors.Wrap(err, "failed to set migration dialect")
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to read schema version"))
	}
	return v, nil
}

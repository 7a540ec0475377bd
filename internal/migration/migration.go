package migration

import (
	"context"

	"estimateml/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the price history schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createPriceObservationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create price_observations table")
	}

	if err := r.createReferencePricesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create reference_prices table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createPriceObservationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_observations (
			id BIGSERIAL PRIMARY KEY,
			item_id VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL,
			region VARCHAR(100) NOT NULL DEFAULT 'default',
			price NUMERIC(14,2) NOT NULL CHECK (price >= 0),
			observed_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createReferencePricesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reference_prices (
			id BIGSERIAL PRIMARY KEY,
			category VARCHAR(100) NOT NULL,
			price NUMERIC(14,2) NOT NULL CHECK (price >= 0),
			source VARCHAR(255),
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_price_observations_item ON price_observations(item_id, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_price_observations_category ON price_observations(category, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reference_prices_category ON reference_prices(category) WHERE active`,
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

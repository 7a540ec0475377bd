package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estimateml/domain/items"
	"estimateml/ports"

	"github.com/jmoiron/sqlx"
)

// Observation is one row of price_observations
type Observation struct {
	ItemID     string    `db:"item_id"`
	Category   string    `db:"category"`
	Region     string    `db:"region"`
	Price      float64   `db:"price"`
	ObservedAt time.Time `db:"observed_at"`
}

// monthlyRow is one category/month average
type monthlyRow struct {
	Category string    `db:"category"`
	Month    time.Time `db:"month"`
	Price    float64   `db:"price"`
}

// PriceRepository implements ports.PriceHistoryRepository for PostgreSQL
type PriceRepository struct {
	db *sqlx.DB
}

var _ ports.PriceHistoryRepository = (*PriceRepository)(nil)

// NewPriceRepository creates a new PostgreSQL price history repository
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// HistoricalPrices returns an item's observations, oldest first
func (r *PriceRepository) HistoricalPrices(ctx context.Context, itemID string) ([]items.PricePoint, error) {
	var rows []Observation
	err := r.db.SelectContext(ctx, &rows, `
		SELECT item_id, category, region, price, observed_at
		FROM price_observations
		WHERE item_id = $1
		ORDER BY observed_at ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", itemID, err)
	}

	out := make([]items.PricePoint, len(rows))
	for i, row := range rows {
		out[i] = items.PricePoint{Date: row.ObservedAt, Price: row.Price}
	}
	return out, nil
}

// CategoryPrices returns the active reference prices of a category
func (r *PriceRepository) CategoryPrices(ctx context.Context, category string) ([]float64, error) {
	var prices []float64
	err := r.db.SelectContext(ctx, &prices, `
		SELECT price
		FROM reference_prices
		WHERE category = $1 AND active
		ORDER BY price ASC
	`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference prices for %s: %w", category, err)
	}
	return prices, nil
}

// CategoryHistories returns the monthly average observed price per category
func (r *PriceRepository) CategoryHistories(ctx context.Context) (map[string][]items.PricePoint, error) {
	var rows []monthlyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT category, date_trunc('month', observed_at) AS month, AVG(price)::float8 AS price
		FROM price_observations
		GROUP BY category, month
		ORDER BY category, month
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load category histories: %w", err)
	}
	return groupMonthly(rows), nil
}

// groupMonthly splits rows ordered by (category, month) into per-category series
func groupMonthly(rows []monthlyRow) map[string][]items.PricePoint {
	out := make(map[string][]items.PricePoint)
	for _, row := range rows {
		out[row.Category] = append(out[row.Category], items.PricePoint{Date: row.Month.UTC(), Price: row.Price})
	}
	return out
}

// RecordObservations inserts observations in one transaction
func (r *PriceRepository) RecordObservations(ctx context.Context, obs []Observation) error {
	if len(obs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range obs {
		if strings.TrimSpace(obs[i].Region) == "" {
			obs[i].Region = "default"
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO price_observations (item_id, category, region, price, observed_at)
			VALUES (:item_id, :category, :region, :price, :observed_at)
		`, obs[i]); err != nil {
			return fmt.Errorf("failed to insert observation for %s: %w", obs[i].ItemID, err)
		}
	}
	return tx.Commit()
}

// AddReferencePrices appends active reference prices for a category
func (r *PriceRepository) AddReferencePrices(ctx context.Context, category, source string, prices []float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range prices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reference_prices (category, price, source)
			VALUES ($1, $2, $3)
		`, category, p, source); err != nil {
			return fmt.Errorf("failed to insert reference price for %s: %w", category, err)
		}
	}
	return tx.Commit()
}

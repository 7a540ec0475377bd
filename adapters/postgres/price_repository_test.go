package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"estimateml/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMonthly(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)

	got := groupMonthly([]monthlyRow{
		{Category: "painting", Month: jan, Price: 200},
		{Category: "painting", Month: feb, Price: 210},
		{Category: "plastering", Month: jan, Price: 350},
	})

	require.Len(t, got, 2)
	require.Len(t, got["painting"], 2)
	assert.Equal(t, feb, got["painting"][1].Date)
	assert.InDelta(t, 210, got["painting"][1].Price, 1e-9)
	assert.Len(t, got["plastering"], 1)

	assert.Empty(t, groupMonthly(nil))
}

// TestPriceRepository_Postgres runs against a real database when TEST_DATABASE_URL is set
func TestPriceRepository_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	itemID := "test-" + time.Now().Format("20060102150405.000000000")
	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM price_observations WHERE item_id = $1`, itemID)
		db.ExecContext(ctx, `DELETE FROM reference_prices WHERE source = $1`, itemID)
	})

	repo := NewPriceRepository(db)
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordObservations(ctx, []Observation{
		{ItemID: itemID, Category: "test_category", Price: 100, ObservedAt: start},
		{ItemID: itemID, Category: "test_category", Price: 110, ObservedAt: start.AddDate(0, 1, 0)},
	}))

	history, err := repo.HistoricalPrices(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, 100, history[0].Price, 1e-9)

	require.NoError(t, repo.AddReferencePrices(ctx, "test_category", itemID, []float64{300, 200}))
	prices, err := repo.CategoryPrices(ctx, "test_category")
	require.NoError(t, err)
	assert.Subset(t, prices, []float64{200, 300})

	histories, err := repo.CategoryHistories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, histories["test_category"])
}

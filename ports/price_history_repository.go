package ports

import (
	"context"

	"estimateml/domain/items"
)

// PriceHistoryRepository provides read access to observed prices
type PriceHistoryRepository interface {
	// HistoricalPrices returns an item's price history, oldest first
	HistoricalPrices(ctx context.Context, itemID string) ([]items.PricePoint, error)

	// CategoryPrices returns reference unit prices for a work category key
	CategoryPrices(ctx context.Context, category string) ([]float64, error)

	// CategoryHistories returns monthly average price series per category, oldest first
	CategoryHistories(ctx context.Context) (map[string][]items.PricePoint, error)
}

package ports

import (
	"context"

	"estimateml/domain/items"
)

// ItemReader loads estimate line items from a file
type ItemReader interface {
	ReadItems(ctx context.Context, path string) ([]items.Item, error)
}

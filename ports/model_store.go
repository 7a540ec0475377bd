package ports

import (
	"context"
	"time"

	"estimateml/internal/training"
)

// ModelMeta describes a stored set of weights
type ModelMeta struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Accuracy float64   `json:"accuracy"`
	SavedAt  time.Time `json:"savedAt"`
}

// ModelStore persists trained weights between runs. Loads of unknown names return an
// error wrapping core.ErrNotFound.
type ModelStore interface {
	SaveLinear(ctx context.Context, meta ModelMeta, w training.LinearWeights) error
	LoadLinear(ctx context.Context, name string) (training.LinearWeights, ModelMeta, error)

	SaveLogistic(ctx context.Context, meta ModelMeta, w training.LogisticWeights) error
	LoadLogistic(ctx context.Context, name string) (training.LogisticWeights, ModelMeta, error)

	List(ctx context.Context) ([]ModelMeta, error)
}

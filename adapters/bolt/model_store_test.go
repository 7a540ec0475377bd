package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"estimateml/domain/core"
	"estimateml/internal/training"
	"estimateml/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*ModelStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models", "weights.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestLinearRoundTrip(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()
	saved := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	w := training.LinearWeights{Weights: []float64{1.5, 2, 0.8, 0, 3, -0.5}, Bias: 0.01}
	require.NoError(t, s.SaveLinear(ctx, ports.ModelMeta{Name: "price_predictor", Version: "1.0.0", Accuracy: 0.7, SavedAt: saved}, w))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, meta, err := reopened.LoadLinear(ctx, "price_predictor")
	require.NoError(t, err)
	assert.Equal(t, w, got)
	assert.Equal(t, "1.0.0", meta.Version)
	assert.InDelta(t, 0.7, meta.Accuracy, 1e-12)
	assert.True(t, saved.Equal(meta.SavedAt))
}

func TestLogisticRoundTripAndList(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	ctx := context.Background()

	w := training.NewLogisticWeights(3, 2)
	w.Weights[1][2] = 0.25
	w.Bias[0] = -1
	require.NoError(t, s.SaveLogistic(ctx, ports.ModelMeta{Name: "work_classifier", Accuracy: 0.9}, w))
	require.NoError(t, s.SaveLinear(ctx, ports.ModelMeta{Name: "price_predictor"}, training.LinearWeights{Weights: []float64{1}}))

	got, meta, err := s.LoadLogistic(ctx, "work_classifier")
	require.NoError(t, err)
	assert.Equal(t, w, got)
	assert.False(t, meta.SavedAt.IsZero(), "save time defaults to now")

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "price_predictor", metas[0].Name)
	assert.Equal(t, "work_classifier", metas[1].Name)
}

func TestLoadMissing(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	_, _, err := s.LoadLinear(context.Background(), "nope")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, _, err = s.LoadLogistic(context.Background(), "price_predictor")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestSaveRequiresName(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	err := s.SaveLinear(context.Background(), ports.ModelMeta{}, training.LinearWeights{})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
}

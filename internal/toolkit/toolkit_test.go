package toolkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal/config"
	"estimateml/internal/dataprep"
	apperrors "estimateml/internal/errors"
	"estimateml/internal/inference/classify"
	"estimateml/internal/inference/price"
	"estimateml/internal/tables"
	"estimateml/internal/training"
	"estimateml/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu       sync.Mutex
	linear   map[string]training.LinearWeights
	logistic map[string]training.LogisticWeights
	meta     map[string]ports.ModelMeta
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		linear:   map[string]training.LinearWeights{},
		logistic: map[string]training.LogisticWeights{},
		meta:     map[string]ports.ModelMeta{},
	}
}

func (s *memoryStore) SaveLinear(_ context.Context, meta ports.ModelMeta, w training.LinearWeights) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linear[meta.Name] = w.Clone()
	s.meta[meta.Name] = meta
	return nil
}

func (s *memoryStore) LoadLinear(_ context.Context, name string) (training.LinearWeights, ports.ModelMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.linear[name]
	if !ok {
		return training.LinearWeights{}, ports.ModelMeta{}, core.ErrNotFound
	}
	return w.Clone(), s.meta[name], nil
}

func (s *memoryStore) SaveLogistic(_ context.Context, meta ports.ModelMeta, w training.LogisticWeights) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logistic[meta.Name] = w.Clone()
	s.meta[meta.Name] = meta
	return nil
}

func (s *memoryStore) LoadLogistic(_ context.Context, name string) (training.LogisticWeights, ports.ModelMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.logistic[name]
	if !ok {
		return training.LogisticWeights{}, ports.ModelMeta{}, core.ErrNotFound
	}
	return w.Clone(), s.meta[name], nil
}

func (s *memoryStore) List(context.Context) ([]ports.ModelMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.ModelMeta, 0, len(s.meta))
	for _, m := range s.meta {
		out = append(out, m)
	}
	return out, nil
}

type staticHistory struct {
	prices    map[string][]float64
	histories map[string][]items.PricePoint
}

func (h staticHistory) HistoricalPrices(context.Context, string) ([]items.PricePoint, error) {
	return nil, nil
}

func (h staticHistory) CategoryPrices(_ context.Context, category string) ([]float64, error) {
	return h.prices[category], nil
}

func (h staticHistory) CategoryHistories(context.Context) (map[string][]items.PricePoint, error) {
	return h.histories, nil
}

func newToolkit(t *testing.T, cfg *config.Config, opts ...Option) *Toolkit {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	tk, err := New(cfg, tables.Default(), append([]Option{WithClock(core.FixedClock(now))}, opts...)...)
	require.NoError(t, err)
	return tk
}

func estimate() []items.Item {
	return []items.Item{
		{ID: "1", Name: "Штукатурка стен", Category: "plastering", Price: 380, Quantity: 120, Unit: "м²"},
		{ID: "2", Name: "Покраска стен", Category: "painting", Price: 250, Quantity: 120, Unit: "м²"},
		{ID: "3", Name: "Укладка ламината", Category: "flooring", Price: 9000, Quantity: 60, Unit: "м²"},
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(nil, tables.Default())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	cfg := config.Default()
	cfg.Training.Epochs = 0
	_, err = New(cfg, tables.Default())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestNew_RejectsNilTables(t *testing.T) {
	tk, err := New(config.Default(), nil)
	require.Error(t, err)
	assert.Nil(t, tk)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestStatusAndReady(t *testing.T) {
	tk := newToolkit(t, nil)
	assert.True(t, tk.Ready())

	statuses := tk.Status()
	require.Len(t, statuses, 5)
	for _, s := range statuses {
		assert.Equal(t, results.StatusReady, s.Status, s.Name)
	}

	broken := *tables.Default()
	broken.Seasonal[0] = 0
	degraded, err := New(config.Default(), &broken)
	require.NoError(t, err)
	assert.False(t, degraded.Ready())
	assert.Equal(t, results.StatusFallback, degraded.Price.Status().Status)
}

func TestAnalyzeEstimate(t *testing.T) {
	tk := newToolkit(t, nil)
	budget := 100000.0

	res, err := tk.AnalyzeEstimate(context.Background(), AnalysisRequest{
		Items:       estimate(),
		ProjectType: "apartment",
		TotalArea:   120,
		Budget:      &budget,
		Region:      "moscow",
	})
	require.NoError(t, err)

	assert.False(t, res.ID.String() == "")
	assert.Equal(t, now, res.CreatedAt)
	assert.Equal(t, tables.Default().Fingerprint().Short(), res.TablesVersion)
	assert.InDelta(t, 380*120+250*120+9000*60, res.Total, 1e-6)
	require.Len(t, res.Predictions, 3)
	require.Len(t, res.Anomalies, 3)
	assert.True(t, res.Anomalies[2].IsAnomaly, "flooring at 9000 is far above its reference")
	assert.LessOrEqual(t, res.Optimization.OptimizedTotal, res.Optimization.OriginalTotal)
	assert.NotEmpty(t, res.Recommendations)
	for _, p := range res.Predictions {
		assert.Equal(t, results.ModeFeatureBased, p.Mode)
	}
}

func TestAnalyzeEstimate_LowConfidenceIsCaveatNotError(t *testing.T) {
	cfg := config.Default()
	cfg.Inference.AdvisoryConfidence = 99
	tk := newToolkit(t, cfg)

	res, err := tk.AnalyzeEstimate(context.Background(), AnalysisRequest{Items: estimate()})
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 3)
	assert.Len(t, res.Caveats, 3)
	assert.Contains(t, res.Caveats[0], "advisory")
}

func TestAnalyzeEstimate_NoDataAndUnavailable(t *testing.T) {
	tk := newToolkit(t, nil)
	_, err := tk.AnalyzeEstimate(context.Background(), AnalysisRequest{})
	assert.True(t, errors.Is(err, core.ErrNoData))
	assert.Equal(t, apperrors.CodeNoData, apperrors.GetCode(err))

	broken := *tables.Default()
	broken.Seasonal[0] = 0
	cfg := config.Default()
	cfg.Inference.FallbackEnabled = false
	down, err := New(cfg, &broken)
	require.NoError(t, err)

	_, err = down.AnalyzeEstimate(context.Background(), AnalysisRequest{Items: estimate()})
	assert.True(t, errors.Is(err, core.ErrModelUnavailable))
	assert.False(t, errors.Is(err, core.ErrNoData))
	assert.Equal(t, apperrors.CodeModelUnavailable, apperrors.GetCode(err))
}

func TestAnalyzeEstimate_DegradedTablesFailWithCode(t *testing.T) {
	broken := *tables.Default()
	broken.Seasonal[0] = 0
	tk, err := New(config.Default(), &broken, WithClock(core.FixedClock(now)))
	require.NoError(t, err)
	require.True(t, tk.Price.Available(), "fallback keeps the predictor answering")

	res, err := tk.AnalyzeEstimate(context.Background(), AnalysisRequest{Items: estimate()})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, core.ErrModelUnavailable))
	assert.Equal(t, apperrors.CodeModelUnavailable, apperrors.GetCode(err))
}

func TestAnalyzeEstimate_InvalidItemCarriesInputCode(t *testing.T) {
	tk := newToolkit(t, nil)
	bad := estimate()
	bad[0].Price = -1

	_, err := tk.AnalyzeEstimate(context.Background(), AnalysisRequest{Items: bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestSaveAndLoadModels(t *testing.T) {
	store := newMemoryStore()
	tk := newToolkit(t, nil, WithModelStore(store))

	custom := training.LinearWeights{Weights: []float64{1, 1, 1, 1, 1, 1}, Bias: 0.1}
	require.NoError(t, tk.Price.SetWeights(custom, 0.42))
	require.NoError(t, tk.SaveModels(context.Background()))

	_, _, err := store.LoadLogistic(context.Background(), classify.ModelName)
	assert.True(t, errors.Is(err, core.ErrNotFound), "untrained classifier is not saved")

	fresh := newToolkit(t, nil, WithModelStore(store))
	assert.NotEqual(t, custom, fresh.Price.Weights())
	require.NoError(t, fresh.LoadModels(context.Background()))
	assert.Equal(t, custom, fresh.Price.Weights())
	assert.InDelta(t, 0.42, fresh.Price.Status().Accuracy, 1e-12)

	metas, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, price.ModelName, metas[0].Name)
	assert.Equal(t, now, metas[0].SavedAt)
}

func TestLoadModels_EmptyStoreKeepsDefaults(t *testing.T) {
	tk := newToolkit(t, nil, WithModelStore(newMemoryStore()))
	require.NoError(t, tk.LoadModels(context.Background()))
	assert.Equal(t, price.DefaultWeights(), tk.Price.Weights())

	_, ok := tk.Classifier.Model()
	assert.False(t, ok)

	bare := newToolkit(t, nil)
	assert.NoError(t, bare.LoadModels(context.Background()))
	assert.Error(t, bare.SaveModels(context.Background()))
}

func TestRefreshBaselines(t *testing.T) {
	tk := newToolkit(t, nil, WithPriceHistory(staticHistory{
		prices: map[string][]float64{"plastering": {900, 1000, 1100}},
	}))

	n, err := tk.RefreshBaselines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, ok := tk.Anomaly.GetCategoryStatistics("plastering")
	require.True(t, ok)
	assert.InDelta(t, 1000, stats.Mean, 1e-9)
}

func TestTrain(t *testing.T) {
	cfg := config.Default()
	cfg.Training.Epochs = 30
	rng := dataprep.NewRand(7)
	histories := dataprep.GenerateSyntheticHistories(tables.Default(), 24, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), rng)

	store := newMemoryStore()
	tk := newToolkit(t, cfg, WithModelStore(store), WithPriceHistory(staticHistory{histories: histories}))

	samples := dataprep.GenerateSyntheticTextSamples(tables.Default(), 10, rng)
	report, err := tk.Train(context.Background(), nil, samples, "")
	require.NoError(t, err)
	assert.True(t, report.Price.Success)
	assert.True(t, report.Classifier.Success)

	_, ok := tk.Classifier.Model()
	assert.True(t, ok)

	require.NoError(t, tk.SaveModels(context.Background()))
	metas, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}

// Package anomaly flags line items whose unit price is far from the reference
// distribution of their work category.
package anomaly

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal"
	"estimateml/internal/config"
	"estimateml/internal/metrics"
	"estimateml/internal/tables"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	ModelName    = "anomaly_detector"
	ModelVersion = "1.0.0"

	// DefaultThreshold is the anomaly score at which an item is flagged
	DefaultThreshold = 0.95

	noReferenceSuggestion = "no reference data"
)

// CategoryStats summarises the reference prices of one category
type CategoryStats struct {
	Category string  `json:"category"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int     `json:"count"`
}

// Detector is safe for concurrent use; SetBaseline swaps one category's stats at a time
type Detector struct {
	tables    *tables.Tables
	threshold float64
	logger    *internal.Logger
	metrics   *metrics.Recorder
	initErr   error

	mu        sync.RWMutex
	baselines map[string]CategoryStats
}

// Option configures a Detector
type Option func(*Detector)

// WithConfig applies the anomaly threshold
func WithConfig(cfg *config.Config) Option {
	return func(d *Detector) {
		if cfg != nil && cfg.Inference.AnomalyThreshold > 0 {
			d.threshold = cfg.Inference.AnomalyThreshold
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics counts flagged items
func WithMetrics(m *metrics.Recorder) Option {
	return func(d *Detector) { d.metrics = m }
}

// New computes per-category baselines from the table reference prices
func New(t *tables.Tables, opts ...Option) *Detector {
	d := &Detector{
		tables:    t,
		threshold: DefaultThreshold,
		logger:    internal.DefaultLogger,
		baselines: make(map[string]CategoryStats),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := t.Validate(); err != nil {
		d.initErr = core.NewModelUnavailableError(ModelName, err)
		d.logger.Error("anomaly detector init failed: %v", d.initErr)
		d.metrics.SetReady(ModelName, false)
		return d
	}
	for category, prices := range t.BaselinePrices {
		if s, err := computeStats(category, prices); err == nil {
			d.baselines[category] = s
		}
	}
	d.metrics.SetReady(ModelName, true)
	return d
}

func computeStats(category string, prices []float64) (CategoryStats, error) {
	if len(prices) == 0 {
		return CategoryStats{}, fmt.Errorf("%w: no reference prices for %s", core.ErrNoData, category)
	}
	mean, err := stats.Mean(prices)
	if err != nil {
		return CategoryStats{}, err
	}
	std, err := stats.StandardDeviationPopulation(prices)
	if err != nil {
		return CategoryStats{}, err
	}
	lo, _ := stats.Min(prices)
	hi, _ := stats.Max(prices)
	return CategoryStats{Category: category, Mean: mean, Std: std, Min: lo, Max: hi, Count: len(prices)}, nil
}

// Status reports readiness for health checks
func (d *Detector) Status() results.ModelStatus {
	s := results.ModelStatus{
		Name:     ModelName,
		Version:  ModelVersion,
		IsLoaded: d.initErr == nil,
		Status:   results.StatusReady,
	}
	if d.initErr != nil {
		s.Status = results.StatusError
	}
	return s
}

// resolve maps an item to a baseline key: the category field first, then the item name
func (d *Detector) resolve(item items.Item) (string, bool) {
	for _, candidate := range []string{item.Category, item.Name} {
		if candidate == "" {
			continue
		}
		if _, ok := d.baselineFor(candidate); ok {
			return candidate, true
		}
		if key, ok := d.tables.ResolveCategory(candidate); ok {
			if _, ok := d.baselineFor(key); ok {
				return key, true
			}
		}
	}
	return "", false
}

func (d *Detector) baselineFor(key string) (CategoryStats, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.baselines[key]
	return s, ok
}

// SetBaseline replaces one category's reference distribution, e.g. with prices loaded
// from a price history store
func (d *Detector) SetBaseline(category string, prices []float64) error {
	if d.initErr != nil {
		return d.initErr
	}
	key := category
	if resolved, ok := d.tables.ResolveCategory(category); ok {
		key = resolved
	}
	s, err := computeStats(key, prices)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.baselines[key] = s
	d.mu.Unlock()
	d.logger.Debug("baseline for %s replaced: mean %.2f std %.2f n=%d", key, s.Mean, s.Std, s.Count)
	return nil
}

// GetCategoryStatistics returns the baseline for a category name or key
func (d *Detector) GetCategoryStatistics(category string) (CategoryStats, bool) {
	if d.initErr != nil {
		return CategoryStats{}, false
	}
	key, ok := d.resolve(items.Item{Category: category})
	if !ok {
		return CategoryStats{}, false
	}
	return d.baselineFor(key)
}

// Detect scores one item. score = 2Φ(|z|)-1, so 0.95 corresponds to |z| ≈ 1.96.
// Items in categories without reference data score 0 and are never flagged.
func (d *Detector) Detect(ctx context.Context, item items.Item) (results.AnomalyResult, error) {
	if err := ctx.Err(); err != nil {
		return results.AnomalyResult{}, err
	}
	if d.initErr != nil {
		return results.AnomalyResult{}, d.initErr
	}
	if item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
		return results.AnomalyResult{}, core.NewInvalidArgumentError("price", "must be a finite non-negative number")
	}
	started := time.Now()

	res := results.AnomalyResult{ItemID: item.ID, ActualPrice: item.Price}
	key, ok := d.resolve(item)
	if !ok {
		res.Suggestion = noReferenceSuggestion
		d.metrics.ObservePrediction(ModelName, "no_reference", time.Since(started))
		return res, nil
	}
	s, _ := d.baselineFor(key)

	std := s.Std
	if std == 0 {
		std = 0.1 * s.Mean
		if std == 0 {
			std = 1
		}
	}
	z := (item.Price - s.Mean) / std

	res.ZScore = z
	res.AnomalyScore = results.ClampUnit(2*distuv.UnitNormal.CDF(math.Abs(z)) - 1)
	res.ExpectedRange = results.PriceRange{
		Min: results.Round2(math.Max(0, s.Mean-2*std)),
		Max: results.Round2(s.Mean + 2*std),
	}
	res.IsAnomaly = res.AnomalyScore >= d.threshold

	switch {
	case res.IsAnomaly && z > 0:
		res.AnomalyType = results.AnomalyPriceHigh
		res.Suggestion = fmt.Sprintf("price is %s the %s average of %.2f; check the rate or consider a cheaper alternative",
			deviation(item.Price, s.Mean, "above"), key, s.Mean)
	case res.IsAnomaly:
		res.AnomalyType = results.AnomalyPriceLow
		res.Suggestion = fmt.Sprintf("price is %s the %s average of %.2f; check for missing scope or a unit error",
			deviation(item.Price, s.Mean, "below"), key, s.Mean)
	default:
		res.Suggestion = "price is within the expected range"
	}

	if res.IsAnomaly {
		d.metrics.AnomalyFlagged(string(res.AnomalyType))
		d.logger.Debug("item %s flagged %s (z=%.2f)", item.ID, res.AnomalyType, z)
	}
	d.metrics.ObservePrediction(ModelName, key, time.Since(started))
	return res, nil
}

// deviation phrases how far price sits from mean. A non-positive mean has no
// meaningful percentage, so the absolute difference is reported instead.
func deviation(price, mean float64, direction string) string {
	if mean <= 0 {
		return fmt.Sprintf("%.2f %s", math.Abs(price-mean), direction)
	}
	return fmt.Sprintf("%.0f%% %s", math.Abs(price/mean-1)*100, direction)
}

// DetectBatch scores every item in order; the first failure aborts the batch
func (d *Detector) DetectBatch(ctx context.Context, batch []items.Item) ([]results.AnomalyResult, error) {
	out := make([]results.AnomalyResult, 0, len(batch))
	for _, it := range batch {
		r, err := d.Detect(ctx, it)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

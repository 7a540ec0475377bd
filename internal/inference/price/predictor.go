// Package price forecasts line-item prices over a horizon of months.
//
// The feature-based path projects the current price forward with inflation and
// seasonality, then applies a bounded learned adjustment (±10%) driven by regional,
// volatility and historical-trend signals. When construction fails and fallback is
// enabled, a deterministic inflation-and-season formula answers instead.
package price

import (
	"sync"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/results"
	"estimateml/internal"
	"estimateml/internal/cache"
	"estimateml/internal/config"
	"estimateml/internal/metrics"
	"estimateml/internal/tables"
	"estimateml/internal/training"
)

const (
	ModelName    = "price_predictor"
	ModelVersion = "1.0.0"

	// DefaultHorizon is used when a caller passes zero months
	DefaultHorizon = 3
	// MaxHorizon bounds the forecast length
	MaxHorizon = 60

	maxAdjustment      = 0.10
	fallbackConfidence = 65.0
	trendThreshold     = 0.03
)

// Adjustment feature layout
const (
	adjSeasonal = iota
	adjInflation
	adjRegional
	adjCategoryVolatility
	adjHistTrend
	adjHistVolatility

	NumAdjustmentFeatures = adjHistVolatility + 1
)

// DefaultWeights are the hand-set adjustment weights used until Train replaces them
func DefaultWeights() training.LinearWeights {
	return training.LinearWeights{
		Weights: []float64{1.5, 2.0, 0.8, 0.0, 3.0, -0.5},
		Bias:    0,
	}
}

type cacheKey struct {
	ItemID string
	Price  float64
	Region string
	Months int
}

// Predictor is safe for concurrent use. Weights are replaced wholesale by Train or
// SetWeights; in-flight predictions keep the snapshot they started with.
type Predictor struct {
	tables   *tables.Tables
	clock    core.Clock
	logger   *internal.Logger
	metrics  *metrics.Recorder
	cache    *cache.Cache[cacheKey, results.PricePrediction]
	trainCfg training.Config
	fallback bool
	cacheTTL time.Duration
	initErr  error
	version  string

	mu       sync.RWMutex
	weights  training.LinearWeights
	accuracy float64
}

// Option configures a Predictor
type Option func(*Predictor)

// WithConfig applies cache, fallback and training settings
func WithConfig(cfg *config.Config) Option {
	return func(p *Predictor) {
		if cfg == nil {
			return
		}
		p.fallback = cfg.Inference.FallbackEnabled
		p.cacheTTL = 0
		if cfg.Cache.Enabled {
			p.cacheTTL = cfg.Cache.TTL
		}
		p.trainCfg.Epochs = cfg.Training.Epochs
		p.trainCfg.BatchSize = cfg.Training.BatchSize
		p.trainCfg.LearningRate = cfg.Training.LearningRate
	}
}

// WithClock injects the time source used for forecast dates and cache expiry
func WithClock(c core.Clock) Option {
	return func(p *Predictor) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records predictions and cache behaviour
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithTrainingSeed makes Train reproducible
func WithTrainingSeed(seed int64) Option {
	return func(p *Predictor) { p.trainCfg.Seed = seed }
}

// New builds a predictor over t. Invalid tables leave the predictor in fallback or
// error state depending on the fallback setting; New itself never fails.
func New(t *tables.Tables, opts ...Option) *Predictor {
	p := &Predictor{
		tables:   t,
		clock:    core.SystemClock,
		logger:   internal.DefaultLogger,
		trainCfg: training.DefaultConfig(),
		fallback: true,
		cacheTTL: config.Default().Cache.TTL,
		weights:  DefaultWeights(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = cache.New[cacheKey, results.PricePrediction](p.cacheTTL, p.clock)

	if t == nil {
		p.initErr = core.NewModelUnavailableError(ModelName, nil)
	} else if err := t.Validate(); err != nil {
		p.initErr = core.NewModelUnavailableError(ModelName, err)
	}
	p.version = ModelVersion
	if p.initErr == nil {
		p.version = ModelVersion + "+" + t.Fingerprint().Short()
	} else {
		if p.fallback {
			p.logger.Warn("price predictor init failed, using fallback formula: %v", p.initErr)
		} else {
			p.logger.Error("price predictor init failed: %v", p.initErr)
		}
	}
	p.metrics.SetReady(ModelName, p.initErr == nil)
	return p
}

// Status reports readiness for health checks
func (p *Predictor) Status() results.ModelStatus {
	p.mu.RLock()
	accuracy := p.accuracy
	p.mu.RUnlock()

	s := results.ModelStatus{
		Name:     ModelName,
		Version:  p.version,
		IsLoaded: p.initErr == nil,
		Accuracy: accuracy,
	}
	switch {
	case p.initErr == nil:
		s.Status = results.StatusReady
	case p.fallback:
		s.Status = results.StatusFallback
	default:
		s.Status = results.StatusError
	}
	return s
}

// Available reports whether Predict can answer at all, by either path
func (p *Predictor) Available() bool {
	return p.initErr == nil || p.fallback
}

// Weights returns a copy of the adjustment weights
func (p *Predictor) Weights() training.LinearWeights {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weights.Clone()
}

// SetWeights replaces the adjustment weights, e.g. with ones loaded from a model store,
// and drops cached predictions made with the old ones.
func (p *Predictor) SetWeights(w training.LinearWeights, accuracy float64) error {
	if len(w.Weights) != NumAdjustmentFeatures {
		return core.NewShapeError("price adjustment weights", NumAdjustmentFeatures, len(w.Weights))
	}
	p.mu.Lock()
	p.weights = w.Clone()
	p.accuracy = results.ClampUnit(accuracy)
	p.mu.Unlock()
	p.cache.Clear()
	return nil
}

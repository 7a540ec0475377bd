// Package toolkit owns the five inference models and the stores they are loaded from.
package toolkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal"
	"estimateml/internal/config"
	apperrors "estimateml/internal/errors"
	"estimateml/internal/inference/anomaly"
	"estimateml/internal/inference/classify"
	"estimateml/internal/inference/optimize"
	"estimateml/internal/inference/price"
	"estimateml/internal/inference/recommend"
	"estimateml/internal/metrics"
	"estimateml/internal/tables"
	"estimateml/internal/training"
	"estimateml/ports"

	"golang.org/x/sync/errgroup"
)

// Toolkit holds all models and manages their lifecycle
type Toolkit struct {
	Config *config.Config
	Tables *tables.Tables

	// Inference models
	Price       *price.Predictor
	Classifier  *classify.Classifier
	Anomaly     *anomaly.Detector
	Optimizer   *optimize.Optimizer
	Recommender *recommend.Engine

	// Optional stores
	store   ports.ModelStore
	history ports.PriceHistoryRepository

	logger  *internal.Logger
	metrics *metrics.Recorder
	clock   core.Clock
}

// Option configures a Toolkit
type Option func(*Toolkit)

// WithLogger sets the logger shared by all models
func WithLogger(l *internal.Logger) Option {
	return func(t *Toolkit) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics shares one recorder across all models
func WithMetrics(m *metrics.Recorder) Option {
	return func(t *Toolkit) { t.metrics = m }
}

// WithClock fixes "now" for the price predictor
func WithClock(c core.Clock) Option {
	return func(t *Toolkit) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithModelStore enables LoadModels and SaveModels
func WithModelStore(s ports.ModelStore) Option {
	return func(t *Toolkit) { t.store = s }
}

// WithPriceHistory enables RefreshBaselines and history-based training
func WithPriceHistory(r ports.PriceHistoryRepository) Option {
	return func(t *Toolkit) { t.history = r }
}

// New constructs every model up front. Models that fail to initialise on invalid tables
// are still constructed and report their state through Status; nil tables are rejected.
func New(cfg *config.Config, t *tables.Tables, opts ...Option) (*Toolkit, error) {
	if cfg == nil {
		return nil, apperrors.ConfigInvalid("config cannot be nil")
	}
	if t == nil {
		return nil, apperrors.ConfigInvalid("tables cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	tk := &Toolkit{
		Config: cfg,
		Tables: t,
		logger: internal.DefaultLogger,
		clock:  core.SystemClock,
	}
	for _, opt := range opts {
		opt(tk)
	}

	tk.Price = price.New(t,
		price.WithConfig(cfg), price.WithClock(tk.clock), price.WithLogger(tk.logger), price.WithMetrics(tk.metrics))
	tk.Classifier = classify.New(t,
		classify.WithConfig(cfg), classify.WithLogger(tk.logger), classify.WithMetrics(tk.metrics))
	tk.Anomaly = anomaly.New(t,
		anomaly.WithConfig(cfg), anomaly.WithLogger(tk.logger), anomaly.WithMetrics(tk.metrics))
	tk.Optimizer = optimize.New(t,
		optimize.WithLogger(tk.logger), optimize.WithMetrics(tk.metrics))
	tk.Recommender = recommend.New(t,
		recommend.WithConfig(cfg), recommend.WithOptimizer(tk.Optimizer),
		recommend.WithLogger(tk.logger), recommend.WithMetrics(tk.metrics))

	tk.logger.Info("toolkit initialized: ready=%v", tk.Ready())
	return tk, nil
}

// Status returns one status entry per model
func (tk *Toolkit) Status() []results.ModelStatus {
	return []results.ModelStatus{
		tk.Price.Status(),
		tk.Classifier.Status(),
		tk.Anomaly.Status(),
		tk.Optimizer.Status(),
		tk.Recommender.Status(),
	}
}

// Ready holds only when every model loaded normally; a predictor running on its
// fallback formula is not ready
func (tk *Toolkit) Ready() bool {
	for _, s := range tk.Status() {
		if !s.IsLoaded {
			return false
		}
	}
	return true
}

// LoadModels replaces the built-in weights with stored ones. Missing entries are skipped.
func (tk *Toolkit) LoadModels(ctx context.Context) error {
	if tk.store == nil {
		return nil
	}

	w, meta, err := tk.store.LoadLinear(ctx, price.ModelName)
	switch {
	case errors.Is(err, core.ErrNotFound):
		tk.logger.Debug("no stored weights for %s", price.ModelName)
	case err != nil:
		return apperrors.StorageError("load "+price.ModelName, err)
	default:
		if err := tk.Price.SetWeights(w, meta.Accuracy); err != nil {
			return apperrors.Wrapf(err, "stored %s weights rejected", price.ModelName)
		}
		tk.logger.Info("loaded %s weights saved %s", price.ModelName, meta.SavedAt.Format(time.RFC3339))
	}

	lw, meta, err := tk.store.LoadLogistic(ctx, classify.ModelName)
	switch {
	case errors.Is(err, core.ErrNotFound):
		tk.logger.Debug("no stored weights for %s", classify.ModelName)
	case err != nil:
		return apperrors.StorageError("load "+classify.ModelName, err)
	default:
		if err := tk.Classifier.SetModel(lw, meta.Accuracy); err != nil {
			return apperrors.Wrapf(err, "stored %s weights rejected", classify.ModelName)
		}
		tk.logger.Info("loaded %s weights saved %s", classify.ModelName, meta.SavedAt.Format(time.RFC3339))
	}
	return nil
}

// SaveModels writes the current price weights and, when trained, the classifier weights
func (tk *Toolkit) SaveModels(ctx context.Context) error {
	if tk.store == nil {
		return apperrors.ConfigInvalid("no model store configured")
	}
	now := tk.clock()

	ps := tk.Price.Status()
	if err := tk.store.SaveLinear(ctx, ports.ModelMeta{
		Name: price.ModelName, Version: ps.Version, Accuracy: ps.Accuracy, SavedAt: now,
	}, tk.Price.Weights()); err != nil {
		return apperrors.StorageError("save "+price.ModelName, err)
	}

	if w, ok := tk.Classifier.Model(); ok {
		cs := tk.Classifier.Status()
		if err := tk.store.SaveLogistic(ctx, ports.ModelMeta{
			Name: classify.ModelName, Version: cs.Version, Accuracy: cs.Accuracy, SavedAt: now,
		}, w); err != nil {
			return apperrors.StorageError("save "+classify.ModelName, err)
		}
	}
	return nil
}

// RefreshBaselines replaces the anomaly detector's reference prices with stored ones for
// every category that has any. It returns the number of categories updated.
func (tk *Toolkit) RefreshBaselines(ctx context.Context) (int, error) {
	if tk.history == nil {
		return 0, nil
	}
	if tk.Tables == nil {
		return 0, core.NewModelUnavailableError(anomaly.ModelName, nil)
	}
	updated := 0
	for _, c := range tk.Tables.Categories {
		prices, err := tk.history.CategoryPrices(ctx, c.Key)
		if err != nil {
			return updated, apperrors.StorageError("category prices "+c.Key, err)
		}
		if len(prices) == 0 {
			continue
		}
		if err := tk.Anomaly.SetBaseline(c.Key, prices); err != nil {
			return updated, err
		}
		updated++
	}
	tk.logger.Info("refreshed %d anomaly baselines", updated)
	return updated, nil
}

// TrainReport pairs the results of one training round
type TrainReport struct {
	Price      training.TrainResult `json:"price"`
	Classifier training.TrainResult `json:"classifier"`
}

// Train fits the price adjustment weights and the classifier concurrently. When
// histories is nil and a price history repository is configured, it is read from there.
func (tk *Toolkit) Train(ctx context.Context, histories map[string][]items.PricePoint, samples []items.TextSample, region string) (TrainReport, error) {
	if histories == nil && tk.history != nil {
		h, err := tk.history.CategoryHistories(ctx)
		if err != nil {
			return TrainReport{}, apperrors.StorageError("category histories", err)
		}
		histories = h
	}

	var report TrainReport
	g, gctx := errgroup.WithContext(ctx)
	if len(histories) > 0 {
		g.Go(func() error {
			res, err := tk.Price.Train(gctx, histories, region)
			report.Price = res
			if err != nil {
				return apperrors.TrainingFailed(price.ModelName, err)
			}
			return nil
		})
	}
	if len(samples) > 0 {
		g.Go(func() error {
			res, err := tk.Classifier.Train(gctx, samples)
			report.Classifier = res
			if err != nil {
				return apperrors.TrainingFailed(classify.ModelName, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return report, err
}

// AnalysisRequest is a full estimate to analyse
type AnalysisRequest struct {
	Items        []items.Item `json:"items"`
	ProjectType  string       `json:"projectType,omitempty"`
	TotalArea    float64      `json:"totalArea,omitempty"`
	Budget       *float64     `json:"budget,omitempty"`
	Region       string       `json:"region,omitempty"`
	QualityLevel string       `json:"qualityLevel,omitempty"`
	Months       int          `json:"months,omitempty"`
}

// EstimateAnalysis combines every model's view of one estimate
type EstimateAnalysis struct {
	ID              core.AnalysisID            `json:"id"`
	CreatedAt       time.Time                  `json:"createdAt"`
	TablesVersion   string                     `json:"tablesVersion"`
	Total           float64                    `json:"total"`
	Predictions     []results.PricePrediction  `json:"predictions"`
	Anomalies       []results.AnomalyResult    `json:"anomalies"`
	Optimization    results.OptimizationResult `json:"optimization"`
	Recommendations []results.Recommendation   `json:"recommendations"`
	Caveats         []string                   `json:"caveats,omitempty"`
}

// AnalyzeEstimate runs every model over an estimate. An empty estimate is a NO_DATA error
// and a predictor that can answer neither by features nor by fallback is MODEL_UNAVAILABLE;
// both unwrap to the core sentinels.
// Predictions below the advisory confidence are kept and listed in Caveats.
func (tk *Toolkit) AnalyzeEstimate(ctx context.Context, req AnalysisRequest) (*EstimateAnalysis, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.NoData("estimate has no items")
	}
	if !tk.Price.Available() {
		return nil, apperrors.ModelUnavailable(price.ModelName, core.ErrModelUnavailable)
	}

	batch := make([]items.Item, len(req.Items))
	for i, it := range req.Items {
		if it.Region == "" {
			it.Region = req.Region
		}
		batch[i] = it
	}

	out := &EstimateAnalysis{
		ID:            core.NewAnalysisID(),
		CreatedAt:     tk.clock(),
		TablesVersion: tk.Tables.Fingerprint().Short(),
	}
	for _, it := range batch {
		out.Total += it.Total()
	}
	out.Total = results.Round2(out.Total)

	preds, err := tk.Price.PredictBatch(ctx, batch, req.Months)
	if err != nil {
		return nil, apperrors.Wrap(err, "price prediction failed")
	}
	out.Predictions = preds
	threshold := tk.Config.Inference.AdvisoryConfidence
	for _, p := range preds {
		if p.Mode == results.ModeFallback {
			out.Caveats = append(out.Caveats, fmt.Sprintf("item %s: price predicted by the fallback formula", p.ItemID))
		}
		if p.Confidence < threshold {
			out.Caveats = append(out.Caveats, fmt.Sprintf("item %s: prediction confidence %.0f%% is below %.0f%%; treat as advisory",
				p.ItemID, p.Confidence, threshold))
		}
	}

	if out.Anomalies, err = tk.Anomaly.DetectBatch(ctx, batch); err != nil {
		return nil, apperrors.Wrap(err, "anomaly detection failed")
	}
	if out.Optimization, err = tk.Optimizer.Optimize(ctx, batch, optimize.ParseQualityLevel(req.QualityLevel), req.Budget); err != nil {
		return nil, apperrors.Wrap(err, "optimization failed")
	}
	if out.Recommendations, err = tk.Recommender.GetRecommendations(ctx, recommend.Request{
		ProjectType:  req.ProjectType,
		TotalArea:    req.TotalArea,
		Budget:       req.Budget,
		Region:       req.Region,
		CurrentItems: batch,
	}); err != nil {
		return nil, apperrors.Wrap(err, "recommendations failed")
	}

	tk.logger.WithFields(map[string]interface{}{
		"analysis": out.ID.String(),
		"items":    len(batch),
		"caveats":  len(out.Caveats),
	}).Info("estimate analysed")
	return out, nil
}

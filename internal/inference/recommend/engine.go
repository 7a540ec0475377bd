// Package recommend turns a project description into advisory recommendations using a
// small fixed rule set.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal"
	"estimateml/internal/config"
	"estimateml/internal/inference/optimize"
	"estimateml/internal/metrics"
	"estimateml/internal/tables"

	"github.com/shopspring/decimal"
)

const (
	ModelName    = "recommendation_engine"
	ModelVersion = "1.0.0"

	// DefaultCostSavingMargin is how far a price must exceed a cheaper acceptable alternative
	DefaultCostSavingMargin = 0.15

	// BulkPurchaseArea is the project area, in m², from which bulk discounts apply
	BulkPurchaseArea = 100.0
	bulkDiscount     = 0.05

	// ExpensiveRegionFactor is the regional factor from which the regional rule fires
	ExpensiveRegionFactor = 1.15
)

// Rule confidences
const (
	budgetConfidence      = 0.9
	costSavingConfidence  = 0.8
	missingWorkConfidence = 0.7
	bulkConfidence        = 0.6
	regionalConfidence    = 0.5
)

// Request describes the project being estimated
type Request struct {
	ProjectType  string       `json:"projectType"`
	TotalArea    float64      `json:"totalArea"`
	Budget       *float64     `json:"budget,omitempty"`
	Region       string       `json:"region,omitempty"`
	CurrentItems []items.Item `json:"currentItems,omitempty"`
}

// Engine is safe for concurrent use
type Engine struct {
	tables    *tables.Tables
	optimizer *optimize.Optimizer
	margin    float64
	logger    *internal.Logger
	metrics   *metrics.Recorder
	initErr   error
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig applies the cost-saving margin
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil && cfg.Inference.CostSavingMargin > 0 {
			e.margin = cfg.Inference.CostSavingMargin
		}
	}
}

// WithOptimizer shares an existing optimizer instead of building one
func WithOptimizer(o *optimize.Optimizer) Option {
	return func(e *Engine) { e.optimizer = o }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records rule evaluation latency
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an engine over the project templates and the alternatives table
func New(t *tables.Tables, opts ...Option) *Engine {
	e := &Engine{
		tables: t,
		margin: DefaultCostSavingMargin,
		logger: internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.optimizer == nil {
		e.optimizer = optimize.New(t, optimize.WithLogger(e.logger))
	}

	if err := t.Validate(); err != nil {
		e.initErr = core.NewModelUnavailableError(ModelName, err)
		e.logger.Error("recommendation engine init failed: %v", e.initErr)
		e.metrics.SetReady(ModelName, false)
		return e
	}
	e.metrics.SetReady(ModelName, true)
	return e
}

// Status reports readiness for health checks
func (e *Engine) Status() results.ModelStatus {
	s := results.ModelStatus{
		Name:     ModelName,
		Version:  ModelVersion,
		IsLoaded: e.initErr == nil,
		Status:   results.StatusReady,
	}
	if e.initErr != nil {
		s.Status = results.StatusError
	}
	return s
}

func validate(req Request) error {
	if req.TotalArea < 0 || math.IsNaN(req.TotalArea) || math.IsInf(req.TotalArea, 0) {
		return core.NewInvalidArgumentError("totalArea", "must be a finite non-negative number")
	}
	if req.Budget != nil && (*req.Budget < 0 || math.IsNaN(*req.Budget) || math.IsInf(*req.Budget, 0)) {
		return core.NewInvalidArgumentError("budget", "must be a finite non-negative number")
	}
	for _, it := range req.CurrentItems {
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) ||
			it.Quantity < 0 || math.IsNaN(it.Quantity) || math.IsInf(it.Quantity, 0) {
			return core.NewInvalidArgumentError("currentItems", fmt.Sprintf("item %s: price and quantity must be finite and non-negative", it.ID))
		}
	}
	return nil
}

// GetRecommendations evaluates every rule and returns the ones that fire, highest
// confidence first
func (e *Engine) GetRecommendations(ctx context.Context, req Request) ([]results.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.initErr != nil {
		return nil, e.initErr
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	started := time.Now()

	total := decimal.Zero
	for _, it := range req.CurrentItems {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromFloat(it.Quantity)))
	}

	var out []results.Recommendation
	for _, rule := range []func(Request, decimal.Decimal) (results.Recommendation, bool){
		e.costSaving,
		e.overBudget,
		e.missingWork,
		e.bulkPurchase,
		e.regional,
	} {
		if r, ok := rule(req, total); ok {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	e.metrics.ObservePrediction(ModelName, "rules", time.Since(started))
	e.logger.Debug("%d recommendations for %s project", len(out), req.ProjectType)
	return out, nil
}

func money(d decimal.Decimal) *float64 {
	v := d.Round(2).InexactFloat64()
	return &v
}

// costSaving fires when an item's price exceeds a standard-quality alternative by at
// least the configured margin
func (e *Engine) costSaving(req Request, _ decimal.Decimal) (results.Recommendation, bool) {
	var (
		savings decimal.Decimal
		names   []string
	)
	for _, it := range req.CurrentItems {
		ch, ok := e.optimizer.Suggest(it, optimize.Standard)
		if !ok || ch.NewPrice <= 0 {
			continue
		}
		if ch.OriginalPrice/ch.NewPrice-1 < e.margin-1e-9 {
			continue
		}
		savings = savings.Add(decimal.NewFromFloat(ch.Savings))
		names = append(names, fmt.Sprintf("%s: %s instead of %s", it.Name, ch.Alternative, ch.Original))
	}
	if len(names) == 0 {
		return results.Recommendation{}, false
	}
	return results.Recommendation{
		Type:  results.RecommendCostSaving,
		Title: "Cheaper equivalent materials available",
		Description: fmt.Sprintf("%d item(s) can switch to an alternative at least %.0f%% cheaper with comparable quality, saving about %s",
			len(names), e.margin*100, savings.StringFixed(2)),
		Confidence: costSavingConfidence,
		Savings:    money(savings),
		Items:      names,
	}, true
}

func (e *Engine) overBudget(req Request, total decimal.Decimal) (results.Recommendation, bool) {
	if req.Budget == nil {
		return results.Recommendation{}, false
	}
	limit := decimal.NewFromFloat(*req.Budget)
	if !total.GreaterThan(limit) {
		return results.Recommendation{}, false
	}
	excess := total.Sub(limit)
	desc := fmt.Sprintf("The current total %s exceeds the budget %s by %s", total.StringFixed(2), limit.StringFixed(2), excess.StringFixed(2))
	if limit.IsPositive() {
		desc += fmt.Sprintf(" (%s%%)", excess.Div(limit).Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	return results.Recommendation{
		Type:        results.RecommendBudget,
		Title:       "Estimate exceeds budget",
		Description: desc + ". Run the cost optimizer or reduce scope.",
		Confidence:  budgetConfidence,
		Savings:     money(excess),
	}, true
}

func (e *Engine) missingWork(req Request, _ decimal.Decimal) (results.Recommendation, bool) {
	expected, ok := e.tables.ProjectTemplates[strings.ToLower(strings.TrimSpace(req.ProjectType))]
	if !ok {
		return results.Recommendation{}, false
	}
	present := make(map[string]bool)
	for _, it := range req.CurrentItems {
		for _, name := range []string{it.Category, it.Name} {
			if key, ok := e.tables.ResolveCategory(name); ok {
				present[key] = true
				break
			}
		}
	}
	var missing []string
	for _, key := range expected {
		if present[key] {
			continue
		}
		if c, ok := e.tables.Category(key); ok {
			missing = append(missing, c.Name)
		} else {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return results.Recommendation{}, false
	}
	return results.Recommendation{
		Type:        results.RecommendMissingWork,
		Title:       "Possibly missing work",
		Description: fmt.Sprintf("A typical %s project also includes: %s", req.ProjectType, strings.Join(missing, ", ")),
		Confidence:  missingWorkConfidence,
		Items:       missing,
	}, true
}

func (e *Engine) bulkPurchase(req Request, total decimal.Decimal) (results.Recommendation, bool) {
	if req.TotalArea < BulkPurchaseArea {
		return results.Recommendation{}, false
	}
	r := results.Recommendation{
		Type:  results.RecommendBulkPurchase,
		Title: "Buy materials in bulk",
		Description: fmt.Sprintf("At %.0f m² suppliers usually offer volume discounts of around %.0f%%",
			req.TotalArea, bulkDiscount*100),
		Confidence: bulkConfidence,
	}
	if total.IsPositive() {
		r.Savings = money(total.Mul(decimal.NewFromFloat(bulkDiscount)))
	}
	return r, true
}

func (e *Engine) regional(req Request, _ decimal.Decimal) (results.Recommendation, bool) {
	if strings.TrimSpace(req.Region) == "" {
		return results.Recommendation{}, false
	}
	factor := e.tables.RegionalFactor(req.Region)
	if factor < ExpensiveRegionFactor-1e-9 {
		return results.Recommendation{}, false
	}
	return results.Recommendation{
		Type:  results.RecommendRegional,
		Title: "High regional prices",
		Description: fmt.Sprintf("Prices in %s run about %.0f%% above the national average; compare suppliers from neighbouring regions",
			e.tables.NormalizeRegion(req.Region), (factor-1)*100),
		Confidence: regionalConfidence,
	}, true
}

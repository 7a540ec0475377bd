// Package optimize substitutes cheaper materials within a quality tolerance to bring an
// estimate under budget.
package optimize

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
	"estimateml/internal/metrics"
	"estimateml/internal/tables"

	"github.com/shopspring/decimal"
)

const (
	ModelName    = "cost_optimizer"
	ModelVersion = "1.0.0"

	// epsilon absorbs float error when comparing quality differences to a tolerance
	epsilon = 1e-9

	// minimalLoss is the largest quality loss still reported as minimal
	minimalLoss = 0.05
)

// QualityLevel selects how much quality the optimizer may trade for savings
type QualityLevel string

const (
	Economy  QualityLevel = "economy"
	Standard QualityLevel = "standard"
	Strict   QualityLevel = "strict"
	Premium  QualityLevel = "premium"
)

var tolerances = map[QualityLevel]float64{
	Economy:  0.30,
	Standard: 0.15,
	Strict:   0.05,
	Premium:  0,
}

// ParseQualityLevel is case-insensitive; unknown values map to Standard
func ParseQualityLevel(s string) QualityLevel {
	level := QualityLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tolerances[level]; ok {
		return level
	}
	return Standard
}

// Tolerance is the maximum quality loss allowed at this level
func (q QualityLevel) Tolerance() float64 {
	if tol, ok := tolerances[q]; ok {
		return tol
	}
	return tolerances[Standard]
}

// Optimizer is stateless after construction and safe for concurrent use
type Optimizer struct {
	tables  *tables.Tables
	logger  *internal.Logger
	metrics *metrics.Recorder
	initErr error
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records optimization latency
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Optimizer) { o.metrics = m }
}

// New builds an optimizer over the alternatives table
func New(t *tables.Tables, opts ...Option) *Optimizer {
	o := &Optimizer{tables: t, logger: internal.DefaultLogger}
	for _, opt := range opts {
		opt(o)
	}
	if err := t.Validate(); err != nil {
		o.initErr = core.NewModelUnavailableError(ModelName, err)
		o.logger.Error("cost optimizer init failed: %v", o.initErr)
		o.metrics.SetReady(ModelName, false)
		return o
	}
	o.metrics.SetReady(ModelName, true)
	return o
}

// Status reports readiness for health checks
func (o *Optimizer) Status() results.ModelStatus {
	s := results.ModelStatus{
		Name:     ModelName,
		Version:  ModelVersion,
		IsLoaded: o.initErr == nil,
		Status:   results.StatusReady,
	}
	if o.initErr != nil {
		s.Status = results.StatusError
	}
	return s
}

// GetAlternatives lists a category's alternatives, highest quality first. The category may
// be a key or a free-form name.
func (o *Optimizer) GetAlternatives(category string) ([]tables.Alternative, error) {
	if o.initErr != nil {
		return nil, o.initErr
	}
	key, ok := o.resolve(items.Item{Category: category})
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}
	alts := append([]tables.Alternative(nil), o.tables.Alternatives[key]...)
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Quality > alts[j].Quality })
	return alts, nil
}

func (o *Optimizer) resolve(item items.Item) (string, bool) {
	for _, candidate := range []string{item.Category, item.Name} {
		if candidate == "" {
			continue
		}
		if _, ok := o.tables.Alternatives[candidate]; ok {
			return candidate, true
		}
		if key, ok := o.tables.ResolveCategory(candidate); ok {
			if _, ok := o.tables.Alternatives[key]; ok {
				return key, true
			}
		}
	}
	return "", false
}

// candidate is the best substitution for one line item
type candidate struct {
	item      items.Item
	reference tables.Alternative
	choice    tables.Alternative
	ratio     decimal.Decimal
	savings   decimal.Decimal
	loss      float64
}

// candidateFor picks the cheapest alternative cheaper than the reference whose quality
// loss stays within tol. The item is assumed to be priced at the reference option.
func (o *Optimizer) candidateFor(item items.Item, tol float64) (candidate, bool) {
	key, ok := o.resolve(item)
	if !ok {
		return candidate{}, false
	}
	alts := o.tables.Alternatives[key]
	if len(alts) == 0 {
		return candidate{}, false
	}
	ref := alts[0]
	for _, a := range alts[1:] {
		if a.Quality > ref.Quality {
			ref = a
		}
	}
	if ref.PriceRatio <= 0 {
		return candidate{}, false
	}

	var (
		best  tables.Alternative
		found bool
	)
	for _, a := range alts {
		ratio := a.PriceRatio / ref.PriceRatio
		loss := ref.Quality - a.Quality
		if ratio >= 1 || loss > tol+epsilon {
			continue
		}
		if !found || a.PriceRatio < best.PriceRatio {
			best, found = a, true
		}
	}
	if !found {
		return candidate{}, false
	}

	ratio := decimal.NewFromFloat(best.PriceRatio).Div(decimal.NewFromFloat(ref.PriceRatio))
	savings := lineTotal(item).Mul(decimal.NewFromInt(1).Sub(ratio)).Round(2)
	if !savings.IsPositive() {
		return candidate{}, false
	}
	return candidate{
		item:      item,
		reference: ref,
		choice:    best,
		ratio:     ratio,
		savings:   savings,
		loss:      math.Max(0, ref.Quality-best.Quality),
	}, true
}

// Suggest returns the substitution the optimizer would make for a single item at the
// given level, ignoring any budget
func (o *Optimizer) Suggest(item items.Item, level QualityLevel) (results.Change, bool) {
	if o.initErr != nil || validateItems([]items.Item{item}) != nil {
		return results.Change{}, false
	}
	c, ok := o.candidateFor(item, level.Tolerance())
	if !ok {
		return results.Change{}, false
	}
	return c.change(), true
}

func (c candidate) change() results.Change {
	price := decimal.NewFromFloat(c.item.Price)
	return results.Change{
		ItemID:        c.item.ID,
		ItemName:      c.item.Name,
		Original:      c.reference.Name,
		Alternative:   c.choice.Name,
		OriginalPrice: price.Round(2).InexactFloat64(),
		NewPrice:      price.Mul(c.ratio).Round(2).InexactFloat64(),
		Savings:       c.savings.InexactFloat64(),
		QualityLoss:   results.Round2(c.loss),
	}
}

func lineTotal(item items.Item) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromFloat(item.Quantity))
}

func validateItems(batch []items.Item) error {
	for _, it := range batch {
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return core.NewInvalidArgumentError("price", fmt.Sprintf("item %s: must be a finite non-negative number", it.ID))
		}
		if it.Quantity < 0 || math.IsNaN(it.Quantity) || math.IsInf(it.Quantity, 0) {
			return core.NewInvalidArgumentError("quantity", fmt.Sprintf("item %s: must be a finite non-negative number", it.ID))
		}
	}
	return nil
}

func (o *Optimizer) candidates(batch []items.Item, level QualityLevel) []candidate {
	tol := level.Tolerance()
	var out []candidate
	for _, it := range batch {
		if c, ok := o.candidateFor(it, tol); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].savings.GreaterThan(out[j].savings) })
	return out
}

// Optimize applies substitutions greedily, largest saving first. With a budget it stops as
// soon as the running total fits; without one every candidate is applied.
func (o *Optimizer) Optimize(ctx context.Context, batch []items.Item, level QualityLevel, budget *float64) (results.OptimizationResult, error) {
	if err := ctx.Err(); err != nil {
		return results.OptimizationResult{}, err
	}
	if o.initErr != nil {
		return results.OptimizationResult{}, o.initErr
	}
	if err := validateItems(batch); err != nil {
		return results.OptimizationResult{}, err
	}
	if budget != nil && (*budget < 0 || math.IsNaN(*budget) || math.IsInf(*budget, 0)) {
		return results.OptimizationResult{}, core.NewInvalidArgumentError("budget", "must be a finite non-negative number")
	}
	started := time.Now()

	original := decimal.Zero
	for _, it := range batch {
		original = original.Add(lineTotal(it))
	}
	original = original.Round(2)

	running := original
	changes := make([]results.Change, 0)
	maxLoss := 0.0
	for _, c := range o.candidates(batch, level) {
		if budget != nil && running.LessThanOrEqual(decimal.NewFromFloat(*budget)) {
			break
		}
		running = running.Sub(c.savings)
		changes = append(changes, c.change())
		maxLoss = math.Max(maxLoss, c.loss)
	}

	savings := original.Sub(running)
	percent := decimal.Zero
	if original.IsPositive() {
		percent = savings.Div(original).Mul(decimal.NewFromInt(100)).Round(2)
	}

	res := results.OptimizationResult{
		OriginalTotal:  original.InexactFloat64(),
		OptimizedTotal: running.InexactFloat64(),
		Savings:        savings.InexactFloat64(),
		SavingsPercent: percent.InexactFloat64(),
		Changes:        changes,
		QualityImpact:  impactOf(len(changes), maxLoss),
	}
	res.Recommendations = notes(level, budget, running, res)

	o.metrics.ObservePrediction(ModelName, string(level), time.Since(started))
	o.logger.Debug("optimized %d items at %s: %d changes, savings %s", len(batch), level, len(changes), savings.StringFixed(2))
	return res, nil
}

func impactOf(changes int, maxLoss float64) results.QualityImpact {
	switch {
	case changes == 0 || maxLoss <= epsilon:
		return results.QualityImpactNone
	case maxLoss <= minimalLoss+epsilon:
		return results.QualityImpactMinimal
	default:
		return results.QualityImpactModerate
	}
}

func notes(level QualityLevel, budget *float64, optimized decimal.Decimal, res results.OptimizationResult) []string {
	var out []string
	if len(res.Changes) == 0 {
		out = append(out, fmt.Sprintf("No substitutions available within the %s quality tolerance", level))
	}
	if budget != nil {
		limit := decimal.NewFromFloat(*budget)
		if optimized.GreaterThan(limit) {
			out = append(out, fmt.Sprintf("Budget of %s not reached; remaining gap %s. Consider a lower quality level or reducing scope",
				limit.StringFixed(2), optimized.Sub(limit).StringFixed(2)))
		} else if len(res.Changes) > 0 {
			out = append(out, fmt.Sprintf("Budget of %s met with %d substitution(s)", limit.StringFixed(2), len(res.Changes)))
		}
	}
	if res.QualityImpact == results.QualityImpactModerate {
		out = append(out, "Agree the substituted materials with the client before ordering")
	}
	return out
}

// CalculatePotentialSavings sums every available substitution at the given level without
// a budget limit
func (o *Optimizer) CalculatePotentialSavings(batch []items.Item, level QualityLevel) (float64, error) {
	if o.initErr != nil {
		return 0, o.initErr
	}
	if err := validateItems(batch); err != nil {
		return 0, err
	}
	total := decimal.Zero
	for _, c := range o.candidates(batch, level) {
		total = total.Add(c.savings)
	}
	return total.Round(2).InexactFloat64(), nil
}

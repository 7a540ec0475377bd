package price

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal/features"
	"estimateml/internal/training"
)

// Predict forecasts item's price months ahead. Zero months means DefaultHorizon.
// Identical (id, price, region, months) inputs within the cache TTL return the
// cached result without recomputation.
func (p *Predictor) Predict(ctx context.Context, item items.Item, months int) (results.PricePrediction, error) {
	if err := ctx.Err(); err != nil {
		return results.PricePrediction{}, err
	}
	if months == 0 {
		months = DefaultHorizon
	}
	if months < 0 || months > MaxHorizon {
		return results.PricePrediction{}, core.NewInvalidArgumentError("months", fmt.Sprintf("must be within 1..%d", MaxHorizon))
	}
	if item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
		return results.PricePrediction{}, core.NewInvalidArgumentError("price", "must be a finite non-negative number")
	}

	started := time.Now()
	key := cacheKey{ItemID: item.ID, Price: item.Price, Region: item.Region, Months: months}
	if cached, ok := p.cache.Get(key); ok {
		p.metrics.CacheHit(ModelName)
		p.logger.Debug("price cache hit for item %s", item.ID)
		return clonePrediction(cached), nil
	}
	if p.cache.Enabled() {
		p.metrics.CacheMiss(ModelName)
	}

	var pred results.PricePrediction
	switch {
	case p.initErr == nil:
		pred = p.predictFeatureBased(item, months, p.clock())
	case p.fallback:
		pred = p.predictFallback(item, months, p.clock())
	default:
		return results.PricePrediction{}, p.initErr
	}

	p.cache.Set(key, clonePrediction(pred))
	p.metrics.ObservePrediction(ModelName, string(pred.Mode), time.Since(started))
	return pred, nil
}

// clonePrediction copies the slices so callers never share backing arrays with the cache
func clonePrediction(pred results.PricePrediction) results.PricePrediction {
	pred.Factors = slices.Clone(pred.Factors)
	pred.Forecast = slices.Clone(pred.Forecast)
	return pred
}

// PredictBatch predicts every item in order; the first failure aborts the batch
func (p *Predictor) PredictBatch(ctx context.Context, batch []items.Item, months int) ([]results.PricePrediction, error) {
	out := make([]results.PricePrediction, 0, len(batch))
	for _, it := range batch {
		pred, err := p.Predict(ctx, it, months)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		out = append(out, pred)
	}
	return out, nil
}

// seasonalImpact is the geometric mean of the next h months' factors relative to the
// factor of the month at now
func (p *Predictor) seasonalImpact(now time.Time, h int) float64 {
	current := p.tables.SeasonalFactor(now.Month())
	if current <= 0 {
		return 1
	}
	logSum := 0.0
	start := core.MonthStart(now)
	for i := 1; i <= h; i++ {
		logSum += math.Log(p.tables.SeasonalFactor(start.AddDate(0, i, 0).Month()))
	}
	return math.Exp(logSum/float64(h)) / current
}

// adjustmentInput is everything the feature path needs for one item at one moment
type adjustmentInput struct {
	vector         []float64
	base           float64
	historyPoints  int
	histVolatility float64
	highVolatility bool
	regional       float64
	seasonal       float64
	inflation      float64
}

// adjustmentFeatures builds the projection base and the adjustment vector
// [seasonal-1, inflation, regional-1, categoryVolatility, histTrend, histVolatility].
// Historical terms are only used with at least 4 points.
func (p *Predictor) adjustmentFeatures(item items.Item, category string, h int, now time.Time) adjustmentInput {
	hist := item.HistoryPrices()
	r := features.RangeOf(append(hist, item.Price))

	var fv items.FeatureVector
	if len(hist) >= 4 {
		fv = features.ExtractHistoryFeatures(p.tables, item, r, now)
	} else {
		fv = features.ExtractItemFeatures(p.tables, item, r, now)
	}

	seasonal := p.seasonalImpact(now, h)
	inflation := p.tables.AnnualInflation / 12 * float64(h)
	in := adjustmentInput{
		base:           item.Price * (1 + inflation) * seasonal,
		historyPoints:  len(hist),
		highVolatility: fv[features.FeatHighVolatility] > 0,
		regional:       fv[features.FeatRegional],
		seasonal:       seasonal,
		inflation:      inflation,
	}
	in.vector = make([]float64, NumAdjustmentFeatures)
	in.vector[adjSeasonal] = seasonal - 1
	in.vector[adjInflation] = inflation
	in.vector[adjRegional] = fv[features.FeatRegional] - 1
	in.vector[adjCategoryVolatility] = p.tables.CategoryVolatility(category)
	if len(fv) > features.FeatVolatility {
		in.vector[adjHistTrend] = fv[features.FeatTrend]
		in.vector[adjHistVolatility] = fv[features.FeatVolatility]
		in.histVolatility = fv[features.FeatVolatility]
	}
	return in
}

func adjust(w training.LinearWeights, in adjustmentInput) float64 {
	raw := w.Predict(in.vector)
	if math.IsNaN(raw) {
		raw = 0
	}
	return in.base * (1 + maxAdjustment*math.Tanh(raw))
}

func (p *Predictor) predictFeatureBased(item items.Item, h int, now time.Time) results.PricePrediction {
	in := p.adjustmentFeatures(item, item.Category, h, now)
	predicted := adjust(p.Weights(), in)

	confidence := 70.0
	switch {
	case in.historyPoints >= 12:
		confidence += 15
	case in.historyPoints >= 7:
		confidence += 10
	case in.historyPoints >= 4:
		confidence += 5
	}
	if in.highVolatility {
		confidence -= 10
	}
	if in.histVolatility > 0.15 {
		confidence -= 10
	}
	confidence = results.Clamp(confidence, 50, 95)

	factors := []string{
		fmt.Sprintf("seasonal impact %+.1f%%", (in.seasonal-1)*100),
		fmt.Sprintf("inflation %+.1f%% over %d months", in.inflation*100, h),
	}
	if in.regional != 1 {
		factors = append(factors, fmt.Sprintf("regional factor %.2f", in.regional))
	}
	if in.highVolatility {
		factors = append(factors, "high category volatility")
	}
	if in.historyPoints >= 4 {
		factors = append(factors, fmt.Sprintf("historical trend %+.1f%% per period", in.vector[adjHistTrend]*100))
	}

	return p.buildPrediction(item, predicted, confidence, h, now, factors, results.ModeFeatureBased)
}

func (p *Predictor) predictFallback(item items.Item, h int, now time.Time) results.PricePrediction {
	inflation := 0.05
	seasonal := 1.0
	if p.tables != nil {
		if p.tables.AnnualInflation > 0 {
			inflation = p.tables.AnnualInflation
		}
		if f := p.tables.SeasonalFactor(now.Month()); f > 0 {
			seasonal = f
		}
	}
	predicted := item.Price * math.Pow(1+inflation, float64(h)/12) * seasonal
	factors := []string{"fallback: inflation and current seasonality only"}
	return p.buildPrediction(item, predicted, fallbackConfidence, h, now, factors, results.ModeFallback)
}

func (p *Predictor) buildPrediction(item items.Item, predicted, confidence float64, h int, now time.Time, factors []string, mode results.PredictionMode) results.PricePrediction {
	if math.IsInf(predicted, 0) || math.IsNaN(predicted) {
		predicted = finite(predicted)
		factors = append(factors, "projection capped at the largest representable price")
	}
	change := 0.0
	if item.Price > 0 {
		change = (predicted - item.Price) / item.Price
	}

	trend := results.TrendStable
	switch {
	case change > trendThreshold:
		trend = results.TrendRising
	case change < -trendThreshold:
		trend = results.TrendFalling
	}

	return results.PricePrediction{
		ItemID:         item.ID,
		CurrentPrice:   item.Price,
		PredictedPrice: results.Round2(predicted),
		Confidence:     results.ClampPercent(confidence),
		Trend:          trend,
		ChangePercent:  results.Round2(change * 100),
		Factors:        factors,
		ForecastPeriod: h,
		Forecast:       forecast(item.Price, predicted, confidence, h, now),
		Mode:           mode,
	}
}

// forecast interpolates monthly points from current to predicted with a small
// deterministic wave; confidence decays 5% per month out
func forecast(current, predicted, confidence float64, h int, now time.Time) []results.ForecastPoint {
	start := core.MonthStart(now)
	points := make([]results.ForecastPoint, h)
	for i := 1; i <= h; i++ {
		price := current + (predicted-current)*float64(i)/float64(h)
		price *= 1 + 0.005*math.Sin(float64(i)*math.Pi/3)
		points[i-1] = results.ForecastPoint{
			Date:       start.AddDate(0, i, 0),
			Price:      results.Round2(finite(price)),
			Confidence: results.ClampPercent(confidence * (1 - 0.05*float64(i-1))),
		}
	}
	return points
}

// finite caps overflowed prices at math.MaxFloat64; NaN becomes zero
func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

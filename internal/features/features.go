// Package features turns raw line items and price histories into fixed-layout numeric
// feature vectors. Every function here is pure: the same inputs always give the same vector.
package features

import (
	"math"
	"time"

	"estimateml/domain/items"
	"estimateml/internal/tables"

	"github.com/montanaflynn/stats"
)

// Positional layout of item feature vectors. Training and inference must agree on it.
const (
	FeatPrice = iota
	FeatSeasonal
	FeatRegional
	FeatHighVolatility
	FeatTrend
	FeatVolatility

	ItemFeatureCount    = FeatHighVolatility + 1
	HistoryFeatureCount = FeatVolatility + 1
)

// PriceRange is the span used to scale prices into [0,1]
type PriceRange struct {
	Min float64
	Max float64
}

// RangeOf returns the min/max span of the given prices
func RangeOf(prices []float64) PriceRange {
	lo, errLo := stats.Min(prices)
	hi, errHi := stats.Max(prices)
	if errLo != nil || errHi != nil {
		return PriceRange{}
	}
	return PriceRange{Min: lo, Max: hi}
}

// ExtractItemFeatures builds [price01, seasonal, regional, highVolatility] for an item at time at
func ExtractItemFeatures(t *tables.Tables, item items.Item, r PriceRange, at time.Time) items.FeatureVector {
	v := make(items.FeatureVector, ItemFeatureCount)
	v[FeatPrice] = scalePrice(item.Price, r)
	v[FeatSeasonal] = t.SeasonalFactor(at.Month())
	v[FeatRegional] = t.RegionalFactor(item.Region)
	if t.IsHighVolatility(item.Category) {
		v[FeatHighVolatility] = 1
	}
	return v
}

// ExtractHistoryFeatures extends the item features with [trend, volatility] of the item's
// price history. Both are 0 when there is no usable history.
func ExtractHistoryFeatures(t *tables.Tables, item items.Item, r PriceRange, at time.Time) items.FeatureVector {
	base := ExtractItemFeatures(t, item, r, at)
	v := make(items.FeatureVector, HistoryFeatureCount)
	copy(v, base)
	prices := item.HistoryPrices()
	v[FeatTrend] = CalculateTrend(prices)
	v[FeatVolatility] = CalculateVolatility(prices)
	return v
}

func scalePrice(price float64, r PriceRange) float64 {
	span := r.Max - r.Min
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0.5
	}
	scaled := (price - r.Min) / span
	return math.Max(0, math.Min(1, scaled))
}

// CalculateTrend returns the average period-over-period change as a fraction
// (0.02 means +2% per period). Pairs with a zero predecessor are skipped.
func CalculateTrend(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		changes = append(changes, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(changes) == 0 {
		return 0
	}
	mean, err := stats.Mean(changes)
	if err != nil {
		return 0
	}
	return mean
}

// CalculateVolatility returns the coefficient of variation (population std / mean)
func CalculateVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	mean, err := stats.Mean(prices)
	if err != nil || mean == 0 {
		return 0
	}
	std, err := stats.StandardDeviationPopulation(prices)
	if err != nil {
		return 0
	}
	return std / math.Abs(mean)
}

// CreateTimeSeriesFeatures slides a window of windowSize points across the series.
// Each window yields windowSize-1 point-to-point deltas as features and the next
// point's price as the label. Series shorter than windowSize+1 yield no windows.
func CreateTimeSeriesFeatures(series []float64, windowSize int) ([][]float64, []float64) {
	if windowSize < 2 || len(series) < windowSize+1 {
		return [][]float64{}, []float64{}
	}
	n := len(series) - windowSize
	features := make([][]float64, 0, n)
	labels := make([]float64, 0, n)
	for start := 0; start < n; start++ {
		row := make([]float64, windowSize-1)
		for j := 1; j < windowSize; j++ {
			row[j-1] = series[start+j] - series[start+j-1]
		}
		features = append(features, row)
		labels = append(labels, series[start+windowSize])
	}
	return features, labels
}

package results

import (
	"math"
	"time"
)

// Trend is the direction of a price forecast
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// PredictionMode records which path produced a prediction
type PredictionMode string

const (
	ModeFeatureBased PredictionMode = "feature_based"
	ModeFallback     PredictionMode = "fallback"
)

// PricePrediction is the predictor output. Confidence is a percentage in [0,100].
type PricePrediction struct {
	ItemID         string          `json:"itemId"`
	CurrentPrice   float64         `json:"currentPrice"`
	PredictedPrice float64         `json:"predictedPrice"`
	Confidence     float64         `json:"confidence"`
	Trend          Trend           `json:"trend"`
	ChangePercent  float64         `json:"changePercent"`
	Factors        []string        `json:"factors"`
	ForecastPeriod int             `json:"forecastPeriod"`
	Forecast       []ForecastPoint `json:"forecast"`
	Mode           PredictionMode  `json:"mode"`
}

// ForecastPoint is one month of a forecast
type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
}

// Quantity is a number with a unit pulled out of free text
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ExtractedEntities holds keyword-level entities found in a work description
type ExtractedEntities struct {
	Quantities []Quantity `json:"quantities"`
	Materials  []string   `json:"materials"`
	Actions    []string   `json:"actions"`
}

// ClassificationResult is the work classifier output. Confidence is in [0,1].
type ClassificationResult struct {
	Category            string            `json:"category"`
	Subcategory         string            `json:"subcategory"`
	Confidence          float64           `json:"confidence"`
	ExtractedEntities   ExtractedEntities `json:"extractedEntities"`
	SuggestedNormatives []string          `json:"suggestedNormatives"`
}

// AnomalyType distinguishes over- from under-priced items
type AnomalyType string

const (
	AnomalyPriceHigh AnomalyType = "price_high"
	AnomalyPriceLow  AnomalyType = "price_low"
)

// PriceRange is an inclusive price interval
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AnomalyResult is the detector output. AnomalyScore is in [0,1].
type AnomalyResult struct {
	ItemID        string      `json:"itemId"`
	ActualPrice   float64     `json:"actualPrice"`
	AnomalyScore  float64     `json:"anomalyScore"`
	IsAnomaly     bool        `json:"isAnomaly"`
	AnomalyType   AnomalyType `json:"anomalyType,omitempty"`
	ZScore        float64     `json:"zScore"`
	ExpectedRange PriceRange  `json:"expectedRange"`
	Suggestion    string      `json:"suggestion"`
}

// QualityImpact is a coarse label for how much quality the optimizer traded away
type QualityImpact string

const (
	QualityImpactNone     QualityImpact = "none"
	QualityImpactMinimal  QualityImpact = "minimal"
	QualityImpactModerate QualityImpact = "moderate"
)

// Change is one substitution applied by the cost optimizer
type Change struct {
	ItemID        string  `json:"itemId"`
	ItemName      string  `json:"itemName"`
	Original      string  `json:"original"`
	Alternative   string  `json:"alternative"`
	OriginalPrice float64 `json:"originalPrice"`
	NewPrice      float64 `json:"newPrice"`
	Savings       float64 `json:"savings"`
	QualityLoss   float64 `json:"qualityLoss"`
}

// OptimizationResult is the cost optimizer output
type OptimizationResult struct {
	OriginalTotal   float64       `json:"originalTotal"`
	OptimizedTotal  float64       `json:"optimizedTotal"`
	Savings         float64       `json:"savings"`
	SavingsPercent  float64       `json:"savingsPercent"`
	Changes         []Change      `json:"changes"`
	QualityImpact   QualityImpact `json:"qualityImpact"`
	Recommendations []string      `json:"recommendations"`
}

// RecommendationType tags which rule produced a recommendation
type RecommendationType string

const (
	RecommendCostSaving   RecommendationType = "cost_saving"
	RecommendBudget       RecommendationType = "budget"
	RecommendMissingWork  RecommendationType = "missing_work"
	RecommendBulkPurchase RecommendationType = "bulk_purchase"
	RecommendRegional     RecommendationType = "regional"
)

// Recommendation is one recommendation engine record. Confidence is in [0,1].
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Confidence  float64            `json:"confidence"`
	Savings     *float64           `json:"savings,omitempty"`
	Items       []string           `json:"items,omitempty"`
}

// Status values reported by model status checks
const (
	StatusReady    = "ready"
	StatusFallback = "fallback"
	StatusError    = "error"
)

// ModelStatus is the health/readiness payload of one model
type ModelStatus struct {
	Name     string  `json:"name"`
	Version  string  `json:"version"`
	IsLoaded bool    `json:"isLoaded"`
	Status   string  `json:"status"`
	Accuracy float64 `json:"accuracy"`
}

// Clamp bounds v to [lo,hi]; NaN maps to lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit bounds a score to [0,1]
func ClampUnit(v float64) float64 { return Clamp(v, 0, 1) }

// ClampPercent bounds a percentage confidence to [0,100]
func ClampPercent(v float64) float64 { return Clamp(v, 0, 100) }

// Round2 rounds to two decimal places. Magnitudes past 2^52 carry no fraction and are
// returned unchanged so v*100 cannot overflow.
func Round2(v float64) float64 {
	if math.Abs(v) >= 1<<52 || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}

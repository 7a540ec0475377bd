package items

import (
	"time"
)

// Item is a single estimate line item, the unit of analysis. Supplied per call and never
// persisted by the toolkit.
type Item struct {
	ID       string       `json:"itemId"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Price    float64      `json:"price"`
	Quantity float64      `json:"quantity"`
	Unit     string       `json:"unit"`
	Region   string       `json:"region,omitempty"`
	History  []PricePoint `json:"historicalPrices,omitempty"`
}

// PricePoint is one observation in an item's price history
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Total is price times quantity
func (i Item) Total() float64 {
	return i.Price * i.Quantity
}

// HistoryPrices returns the price values of the history in order
func (i Item) HistoryPrices() []float64 {
	prices := make([]float64, len(i.History))
	for idx, p := range i.History {
		prices[idx] = p.Price
	}
	return prices
}

// FeatureVector is a positional list of features; index meaning is fixed per model
type FeatureVector []float64

// Clone returns an independent copy
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// TextSample is a labeled work description used to train the classifier
type TextSample struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

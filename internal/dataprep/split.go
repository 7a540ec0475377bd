// Package dataprep turns raw price series and labeled work descriptions into train/test
// feature-label splits, and generates synthetic data for bootstrapping models that have
// no real history yet.
package dataprep

import (
	"math"
	"math/rand"
	"time"

	"estimateml/domain/core"
	"estimateml/internal/features"
)

// Split is a train/test partition of features and labels
type Split[L any] struct {
	TrainX [][]float64
	TrainY []L
	TestX  [][]float64
	TestY  []L
}

// NewRand returns a seeded source; seed 0 seeds from the clock
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// TrainTestSplit shuffles sample indices (Fisher–Yates) and puts the first round(n*ratio)
// of them in the training set. Rows are shared with the input, not copied.
func TrainTestSplit[L any](X [][]float64, y []L, ratio float64, rng *rand.Rand) (Split[L], error) {
	if len(X) != len(y) {
		return Split[L]{}, core.NewShapeError("labels", len(X), len(y))
	}
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return Split[L]{}, core.NewInvalidArgumentError("ratio", "must be within [0,1]")
	}
	if rng == nil {
		rng = NewRand(0)
	}

	n := len(X)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}

	cut := int(math.Round(float64(n) * ratio))
	cut = max(0, min(n, cut))

	s := Split[L]{
		TrainX: make([][]float64, 0, cut),
		TrainY: make([]L, 0, cut),
		TestX:  make([][]float64, 0, n-cut),
		TestY:  make([]L, 0, n-cut),
	}
	for k, i := range idx {
		if k < cut {
			s.TrainX = append(s.TrainX, X[i])
			s.TrainY = append(s.TrainY, y[i])
		} else {
			s.TestX = append(s.TestX, X[i])
			s.TestY = append(s.TestY, y[i])
		}
	}
	return s, nil
}

// PriceData is a windowed, normalized price split. Norm was fitted on the training
// features only and has already been applied to both halves.
type PriceData struct {
	Split[float64]
	Norm features.NormParams
}

// PreparePriceData windows a price series into delta features and next-price labels,
// splits them and min-max normalizes the features.
func PreparePriceData(series []float64, window int, ratio float64, rng *rand.Rand) (PriceData, error) {
	X, y := features.CreateTimeSeriesFeatures(series, window)
	if len(X) == 0 {
		return PriceData{}, core.ErrInsufficientData
	}

	split, err := TrainTestSplit(X, y, ratio, rng)
	if err != nil {
		return PriceData{}, err
	}

	trainX, params, err := features.NormalizeFeatures(split.TrainX, features.MinMax)
	if err != nil {
		return PriceData{}, err
	}
	if len(split.TrainX) == 0 {
		// nothing to fit on; leave test features unscaled but report minmax with no columns
		return PriceData{Split: split, Norm: params}, nil
	}
	testX, err := features.ApplyNormalization(split.TestX, params)
	if err != nil {
		return PriceData{}, err
	}
	split.TrainX, split.TestX = trainX, testX
	return PriceData{Split: split, Norm: params}, nil
}

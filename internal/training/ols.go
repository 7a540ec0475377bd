package training

import (
	"fmt"

	"estimateml/domain/core"

	"github.com/sajari/regression"
)

// FitOLS fits linear weights in closed form by ordinary least squares. It is the
// reference the gradient-descent regressor is compared against. Returns the weights and
// the training R².
func FitOLS(X [][]float64, y []float64) (LinearWeights, float64, error) {
	if len(X) == 0 {
		return LinearWeights{}, 0, core.ErrNoData
	}
	if len(X) != len(y) {
		return LinearWeights{}, 0, core.NewShapeError("labels", len(X), len(y))
	}
	width := len(X[0])
	if err := checkRows(X, width); err != nil {
		return LinearWeights{}, 0, err
	}
	if len(X) <= width {
		return LinearWeights{}, 0, fmt.Errorf("%w: need more than %d samples for %d features", core.ErrInsufficientData, width, width)
	}

	var r regression.Regression
	r.SetObserved("y")
	for i := 0; i < width; i++ {
		r.SetVar(i, fmt.Sprintf("x%d", i))
	}
	for i, x := range X {
		r.Train(regression.DataPoint(y[i], x))
	}
	if err := r.Run(); err != nil {
		return LinearWeights{}, 0, fmt.Errorf("ols fit: %w", err)
	}

	coeffs := r.GetCoeffs()
	w := LinearWeights{Weights: make([]float64, width)}
	if len(coeffs) > 0 {
		w.Bias = coeffs[0]
		copy(w.Weights, coeffs[1:])
	}
	return w, r.R2, nil
}

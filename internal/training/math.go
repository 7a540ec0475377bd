package training

import (
	"math"

	"estimateml/domain/core"
)

func expSafe(x float64) float64 {
	if x < -700 {
		return 0
	}
	return math.Exp(x)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// checkRows verifies every row has width columns
func checkRows(X [][]float64, width int) error {
	for _, row := range X {
		if len(row) != width {
			return core.NewShapeError("feature width", width, len(row))
		}
	}
	return nil
}

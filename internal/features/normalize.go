package features

import (
	"fmt"
	"math"

	"estimateml/domain/core"

	"gonum.org/v1/gonum/stat"
)

// Method selects the scaling scheme
type Method string

const (
	MinMax Method = "minmax"
	ZScore Method = "zscore"
)

// NormParams are per-column scaling parameters fitted on a training split and reused
// verbatim for the paired test or inference data.
type NormParams struct {
	Method Method    `json:"method"`
	Min    []float64 `json:"min,omitempty"`
	Max    []float64 `json:"max,omitempty"`
	Mean   []float64 `json:"mean,omitempty"`
	Std    []float64 `json:"std,omitempty"`
}

// Columns returns the number of columns the params were fitted on
func (p NormParams) Columns() int {
	if p.Method == ZScore {
		return len(p.Mean)
	}
	return len(p.Min)
}

// NormalizeFeatures fits per-column parameters on matrix and returns the scaled copy
func NormalizeFeatures(matrix [][]float64, method Method) ([][]float64, NormParams, error) {
	cols, err := columnCount(matrix)
	if err != nil {
		return nil, NormParams{}, err
	}
	params := fitParams(matrix, cols, method)
	normalized, err := ApplyNormalization(matrix, params)
	return normalized, params, err
}

// ApplyNormalization scales matrix with previously fitted params. The params are never
// refitted here. Constant columns map to 0.
func ApplyNormalization(matrix [][]float64, params NormParams) ([][]float64, error) {
	cols, err := columnCount(matrix)
	if err != nil {
		return nil, err
	}
	if len(matrix) > 0 && cols != params.Columns() {
		return nil, core.NewShapeError("normalization columns", params.Columns(), cols)
	}

	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = scaleValue(v, j, params)
		}
		out[i] = scaled
	}
	return out, nil
}

func scaleValue(v float64, col int, p NormParams) float64 {
	switch p.Method {
	case ZScore:
		if p.Std[col] == 0 || math.IsNaN(p.Std[col]) {
			return 0
		}
		return (v - p.Mean[col]) / p.Std[col]
	default:
		span := p.Max[col] - p.Min[col]
		if span == 0 || math.IsNaN(span) {
			return 0
		}
		return (v - p.Min[col]) / span
	}
}

func fitParams(matrix [][]float64, cols int, method Method) NormParams {
	if method != ZScore {
		method = MinMax
	}
	params := NormParams{Method: method}
	column := make([]float64, len(matrix))

	switch method {
	case ZScore:
		params.Mean = make([]float64, cols)
		params.Std = make([]float64, cols)
	default:
		params.Min = make([]float64, cols)
		params.Max = make([]float64, cols)
	}

	for j := 0; j < cols; j++ {
		for i, row := range matrix {
			column[i] = row[j]
		}
		switch method {
		case ZScore:
			mean, std := stat.MeanStdDev(column, nil)
			if len(column) < 2 || math.IsNaN(std) {
				std = 0
			}
			params.Mean[j] = mean
			params.Std[j] = std
		default:
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range column {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			params.Min[j] = lo
			params.Max[j] = hi
		}
	}
	return params
}

// columnCount checks the matrix is rectangular
func columnCount(matrix [][]float64) (int, error) {
	if len(matrix) == 0 {
		return 0, nil
	}
	cols := len(matrix[0])
	for i, row := range matrix {
		if len(row) != cols {
			return 0, core.NewShapeError(fmt.Sprintf("row %d width", i), cols, len(row))
		}
	}
	return cols, nil
}

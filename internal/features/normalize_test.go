package features

import (
	"math"
	"testing"

	"estimateml/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFeatures_MinMax(t *testing.T) {
	m := [][]float64{{0, 5}, {10, 5}, {5, 5}}

	out, params, err := NormalizeFeatures(m, MinMax)
	require.NoError(t, err)
	assert.Equal(t, MinMax, params.Method)
	assert.Equal(t, []float64{0, 0}, out[0])
	assert.Equal(t, []float64{1, 0}, out[1], "constant column maps to 0")
	assert.Equal(t, []float64{0.5, 0}, out[2])
	assert.Equal(t, 10.0, m[1][0], "input is not modified")
}

func TestNormalizeFeatures_ZScore(t *testing.T) {
	m := [][]float64{{1}, {2}, {3}}

	out, params, err := NormalizeFeatures(m, ZScore)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, params.Mean[0], 1e-12)
	assert.InDelta(t, 1.0, params.Std[0], 1e-12)
	assert.InDelta(t, -1.0, out[0][0], 1e-12)
	assert.InDelta(t, 0.0, out[1][0], 1e-12)
	assert.InDelta(t, 1.0, out[2][0], 1e-12)
}

func TestApplyNormalization_ReusesParams(t *testing.T) {
	_, params, err := NormalizeFeatures([][]float64{{0}, {10}}, MinMax)
	require.NoError(t, err)

	out, err := ApplyNormalization([][]float64{{20}, {-10}}, params)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out[0][0], "test values outside the training range are not clipped")
	assert.Equal(t, -1.0, out[1][0])
}

func TestApplyNormalization_ShapeMismatch(t *testing.T) {
	_, params, err := NormalizeFeatures([][]float64{{1, 2}}, MinMax)
	require.NoError(t, err)

	_, err = ApplyNormalization([][]float64{{1, 2, 3}}, params)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, _, err = NormalizeFeatures([][]float64{{1, 2}, {3}}, ZScore)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestNormalizeFeatures_Empty(t *testing.T) {
	out, _, err := NormalizeFeatures(nil, MinMax)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeFeatures_NoNaN(t *testing.T) {
	out, _, err := NormalizeFeatures([][]float64{{3, 1}}, ZScore)
	require.NoError(t, err)
	for _, v := range out[0] {
		assert.False(t, math.IsNaN(v))
	}
}

package results

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 0.4, 0.4},
		{"below", -3, 0},
		{"above", 7, 1},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 1},
		{"neg inf", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampUnit(tt.in))
		})
	}
	assert.Equal(t, 100.0, ClampPercent(250))
	assert.Equal(t, 12.35, Round2(12.345678))
	assert.Equal(t, 1e308, Round2(1e308))
	assert.Equal(t, math.MaxFloat64, Round2(math.MaxFloat64))
}

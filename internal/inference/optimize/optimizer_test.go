package optimize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []items.Item {
	return []items.Item{
		{ID: "1", Name: "Штукатурка стен", Category: "plastering", Price: 400, Quantity: 100},
		{ID: "2", Name: "Покраска стен", Category: "painting", Price: 300, Quantity: 50},
		{ID: "3", Name: "Вывоз мусора", Category: "Прочее", Price: 5000, Quantity: 1},
	}
}

func budget(v float64) *float64 { return &v }

func anyContains(notes []string, sub string) bool {
	for _, n := range notes {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}

func TestParseQualityLevel(t *testing.T) {
	assert.Equal(t, Strict, ParseQualityLevel("STRICT"))
	assert.Equal(t, Economy, ParseQualityLevel(" economy "))
	assert.Equal(t, Standard, ParseQualityLevel("gold"))
	assert.Equal(t, Standard, ParseQualityLevel(""))
	assert.InDelta(t, 0.30, Economy.Tolerance(), 1e-12)
	assert.InDelta(t, 0, Premium.Tolerance(), 1e-12)
	assert.InDelta(t, 0.15, QualityLevel("bogus").Tolerance(), 1e-12)
}

func TestOptimize_StandardWithoutBudget(t *testing.T) {
	o := New(tables.Default())

	res, err := o.Optimize(context.Background(), sampleItems(), Standard, nil)
	require.NoError(t, err)

	assert.InDelta(t, 60000, res.OriginalTotal, 1e-9)
	require.Len(t, res.Changes, 2)
	// largest saving first
	assert.Equal(t, "1", res.Changes[0].ItemID)
	assert.Equal(t, "Premium gypsum plaster", res.Changes[0].Original)
	assert.Equal(t, "Standard gypsum plaster", res.Changes[0].Alternative)
	assert.InDelta(t, 7200, res.Changes[0].Savings, 1e-9)
	assert.InDelta(t, 328, res.Changes[0].NewPrice, 1e-9)
	assert.InDelta(t, 0.07, res.Changes[0].QualityLoss, 1e-9)
	assert.Equal(t, "2", res.Changes[1].ItemID)
	assert.InDelta(t, 3300, res.Changes[1].Savings, 1e-9)

	assert.InDelta(t, 10500, res.Savings, 1e-9)
	assert.InDelta(t, 49500, res.OptimizedTotal, 1e-9)
	assert.InDelta(t, 17.5, res.SavingsPercent, 1e-9)
	assert.Equal(t, results.QualityImpactModerate, res.QualityImpact)
	assert.LessOrEqual(t, res.OptimizedTotal, res.OriginalTotal)
}

func TestOptimize_EconomyPicksCheapestWithinTolerance(t *testing.T) {
	o := New(tables.Default())
	res, err := o.Optimize(context.Background(), sampleItems(), Economy, nil)
	require.NoError(t, err)

	require.Len(t, res.Changes, 2)
	assert.Equal(t, "Cement-sand plaster", res.Changes[0].Alternative)
	assert.InDelta(t, 15200, res.Changes[0].Savings, 1e-9)
	assert.Equal(t, "Economy water-based paint", res.Changes[1].Alternative)
	assert.InDelta(t, 6750, res.Changes[1].Savings, 1e-9)
}

func TestOptimize_StrictKeepsImpactMinimal(t *testing.T) {
	o := New(tables.Default())
	batch := append(sampleItems(), items.Item{ID: "4", Name: "Прокладка кабеля", Category: "electrical", Price: 1000, Quantity: 10})

	res, err := o.Optimize(context.Background(), batch, Strict, nil)
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, "4", res.Changes[0].ItemID)
	assert.InDelta(t, 1500, res.Changes[0].Savings, 1e-9)
	assert.Equal(t, results.QualityImpactMinimal, res.QualityImpact)
	for _, c := range res.Changes {
		assert.LessOrEqual(t, c.QualityLoss, 0.05+1e-9)
	}
}

func TestOptimize_PremiumChangesNothing(t *testing.T) {
	o := New(tables.Default())
	res, err := o.Optimize(context.Background(), sampleItems(), Premium, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Changes)
	assert.Equal(t, res.OriginalTotal, res.OptimizedTotal)
	assert.Zero(t, res.Savings)
	assert.Equal(t, results.QualityImpactNone, res.QualityImpact)
	require.NotEmpty(t, res.Recommendations)
	assert.Contains(t, res.Recommendations[0], "No substitutions")
}

func TestOptimize_StopsOnceWithinBudget(t *testing.T) {
	o := New(tables.Default())
	res, err := o.Optimize(context.Background(), sampleItems(), Standard, budget(55000))
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.InDelta(t, 52800, res.OptimizedTotal, 1e-9)
	assert.True(t, anyContains(res.Recommendations, "Budget of 55000.00 met"), "%v", res.Recommendations)
}

func TestOptimize_BudgetAlreadyMet(t *testing.T) {
	o := New(tables.Default())
	res, err := o.Optimize(context.Background(), sampleItems(), Economy, budget(1e6))
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Equal(t, res.OriginalTotal, res.OptimizedTotal)
}

func TestOptimize_BudgetNotReached(t *testing.T) {
	o := New(tables.Default())
	res, err := o.Optimize(context.Background(), sampleItems(), Standard, budget(1000))
	require.NoError(t, err)

	assert.Len(t, res.Changes, 2)
	assert.Greater(t, res.OptimizedTotal, 1000.0)
	assert.True(t, anyContains(res.Recommendations, "remaining gap 48500.00"), "%v", res.Recommendations)
}

func TestOptimize_EmptyAndInvalidInput(t *testing.T) {
	o := New(tables.Default())

	res, err := o.Optimize(context.Background(), nil, Standard, nil)
	require.NoError(t, err)
	assert.Zero(t, res.OriginalTotal)
	assert.Zero(t, res.SavingsPercent)
	assert.NotNil(t, res.Changes)

	_, err = o.Optimize(context.Background(), []items.Item{{ID: "x", Price: -1, Quantity: 1}}, Standard, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	_, err = o.Optimize(context.Background(), sampleItems(), Standard, budget(-5))
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Optimize(ctx, sampleItems(), Standard, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetAlternatives(t *testing.T) {
	o := New(tables.Default())

	alts, err := o.GetAlternatives("Штукатурные работы")
	require.NoError(t, err)
	require.Len(t, alts, 3)
	for i := 1; i < len(alts); i++ {
		assert.GreaterOrEqual(t, alts[i-1].Quality, alts[i].Quality)
	}

	alts[0].Name = "mutated"
	again, err := o.GetAlternatives("plastering")
	require.NoError(t, err)
	assert.Equal(t, "Premium gypsum plaster", again[0].Name)

	_, err = o.GetAlternatives("landscaping")
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))
}

func TestCalculatePotentialSavings(t *testing.T) {
	o := New(tables.Default())

	standard, err := o.CalculatePotentialSavings(sampleItems(), Standard)
	require.NoError(t, err)
	assert.InDelta(t, 10500, standard, 1e-9)

	economy, err := o.CalculatePotentialSavings(sampleItems(), Economy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, economy, standard)

	premium, err := o.CalculatePotentialSavings(sampleItems(), Premium)
	require.NoError(t, err)
	assert.Zero(t, premium)
}

func TestOptimizer_Unavailable(t *testing.T) {
	o := New(nil)
	assert.Equal(t, results.StatusError, o.Status().Status)
	assert.False(t, o.Status().IsLoaded)

	_, err := o.Optimize(context.Background(), sampleItems(), Standard, nil)
	assert.True(t, core.IsUnavailableError(err))
	_, err = o.GetAlternatives("plastering")
	assert.True(t, core.IsUnavailableError(err))

	assert.Equal(t, results.StatusReady, New(tables.Default()).Status().Status)
}

func TestSuggest(t *testing.T) {
	o := New(tables.Default())

	ch, ok := o.Suggest(items.Item{ID: "t", Name: "Укладка плитки", Price: 2000, Quantity: 10}, Standard)
	require.True(t, ok)
	assert.Equal(t, "Domestic porcelain stoneware", ch.Alternative)
	assert.InDelta(t, 1400, ch.NewPrice, 1e-9)
	assert.InDelta(t, 6000, ch.Savings, 1e-9)

	_, ok = o.Suggest(items.Item{ID: "d", Category: "demolition", Price: 100, Quantity: 1}, Economy)
	assert.False(t, ok)
	_, ok = o.Suggest(items.Item{ID: "z", Category: "plastering", Price: 0, Quantity: 5}, Economy)
	assert.False(t, ok)
}

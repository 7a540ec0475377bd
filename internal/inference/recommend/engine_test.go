package recommend

import (
	"context"
	"errors"
	"testing"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/domain/results"
	"estimateml/internal/config"
	"estimateml/internal/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func apartmentRequest() Request {
	return Request{
		ProjectType: "apartment",
		TotalArea:   120,
		Budget:      ptr(50000),
		Region:      "Москва",
		CurrentItems: []items.Item{
			{ID: "1", Name: "Штукатурка стен", Category: "plastering", Price: 400, Quantity: 100},
			{ID: "2", Name: "Покраска стен", Category: "painting", Price: 300, Quantity: 50},
			{ID: "3", Name: "Электромонтаж", Category: "electrical", Price: 1000, Quantity: 10},
		},
	}
}

func byType(recs []results.Recommendation) map[results.RecommendationType]results.Recommendation {
	out := make(map[results.RecommendationType]results.Recommendation, len(recs))
	for _, r := range recs {
		out[r.Type] = r
	}
	return out
}

func TestGetRecommendations_AllRulesFire(t *testing.T) {
	e := New(tables.Default())

	recs, err := e.GetRecommendations(context.Background(), apartmentRequest())
	require.NoError(t, err)
	require.Len(t, recs, 5)

	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Confidence, recs[i].Confidence)
	}
	assert.Equal(t, results.RecommendBudget, recs[0].Type)

	got := byType(recs)

	budget := got[results.RecommendBudget]
	require.NotNil(t, budget.Savings)
	assert.InDelta(t, 15000, *budget.Savings, 1e-9)
	assert.Contains(t, budget.Description, "30.0%")

	saving := got[results.RecommendCostSaving]
	require.NotNil(t, saving.Savings)
	assert.InDelta(t, 12000, *saving.Savings, 1e-9)
	assert.Len(t, saving.Items, 3)

	missing := got[results.RecommendMissingWork]
	assert.Len(t, missing.Items, 3)

	bulk := got[results.RecommendBulkPurchase]
	require.NotNil(t, bulk.Savings)
	assert.InDelta(t, 3250, *bulk.Savings, 1e-9)

	regional := got[results.RecommendRegional]
	assert.Contains(t, regional.Description, "moscow")
	assert.Contains(t, regional.Description, "25%")

	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		assert.NotEmpty(t, r.Title)
	}
}

func TestGetRecommendations_MarginFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Inference.CostSavingMargin = 0.25
	e := New(tables.Default(), WithConfig(cfg))

	recs, err := e.GetRecommendations(context.Background(), apartmentRequest())
	require.NoError(t, err)

	saving, ok := byType(recs)[results.RecommendCostSaving]
	require.True(t, ok)
	// only paint is more than 25% dearer than its alternative
	require.Len(t, saving.Items, 1)
	assert.InDelta(t, 3300, *saving.Savings, 1e-9)
}

func TestGetRecommendations_MissingWorkResolvesItemNames(t *testing.T) {
	e := New(tables.Default())

	recs, err := e.GetRecommendations(context.Background(), Request{
		ProjectType: "Bathroom",
		CurrentItems: []items.Item{
			{ID: "a", Name: "Укладка плитки", Price: 1500, Quantity: 10},
			{ID: "b", Name: "Монтаж труб", Category: "plumbing", Price: 800, Quantity: 5},
		},
	})
	require.NoError(t, err)

	missing, ok := byType(recs)[results.RecommendMissingWork]
	require.True(t, ok)
	require.Len(t, missing.Items, 1)
	electrical, _ := tables.Default().Category("electrical")
	assert.Equal(t, electrical.Name, missing.Items[0])
}

func TestGetRecommendations_NothingFires(t *testing.T) {
	e := New(tables.Default())

	recs, err := e.GetRecommendations(context.Background(), Request{
		ProjectType: "hangar",
		TotalArea:   40,
		Budget:      ptr(1e6),
		Region:      "kazan",
		CurrentItems: []items.Item{
			{ID: "d", Category: "demolition", Price: 200, Quantity: 40},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGetRecommendations_BoundaryRules(t *testing.T) {
	e := New(tables.Default())

	recs, err := e.GetRecommendations(context.Background(), Request{TotalArea: 100, Region: "spb"})
	require.NoError(t, err)

	got := byType(recs)
	bulk, ok := got[results.RecommendBulkPurchase]
	require.True(t, ok)
	assert.Nil(t, bulk.Savings)
	_, ok = got[results.RecommendRegional]
	assert.True(t, ok, "factor 1.15 is on the threshold")
}

func TestGetRecommendations_InvalidInput(t *testing.T) {
	e := New(tables.Default())

	_, err := e.GetRecommendations(context.Background(), Request{TotalArea: -1})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	_, err = e.GetRecommendations(context.Background(), Request{Budget: ptr(-10)})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	_, err = e.GetRecommendations(context.Background(), Request{CurrentItems: []items.Item{{ID: "x", Quantity: -2}}})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
}

func TestEngine_Unavailable(t *testing.T) {
	e := New(nil)
	assert.Equal(t, results.StatusError, e.Status().Status)

	_, err := e.GetRecommendations(context.Background(), apartmentRequest())
	assert.True(t, core.IsUnavailableError(err))
}

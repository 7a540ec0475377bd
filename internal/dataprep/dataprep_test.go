package dataprep

import (
	"testing"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/internal/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplit(t *testing.T) {
	X := make([][]float64, 10)
	y := make([]int, 10)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = i
	}

	s, err := TrainTestSplit(X, y, 0.8, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, s.TrainX, 8)
	assert.Len(t, s.TestX, 2)

	seen := map[int]bool{}
	for i, row := range append(append([][]float64{}, s.TrainX...), s.TestX...) {
		label := append(append([]int{}, s.TrainY...), s.TestY...)[i]
		assert.Equal(t, float64(label), row[0], "features stay paired with labels")
		seen[label] = true
	}
	assert.Len(t, seen, 10)
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}}
	y := []float64{1, 2, 3, 4, 5}

	a, err := TrainTestSplit(X, y, 0.6, NewRand(42))
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, 0.6, NewRand(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrainTestSplit_Bounds(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{1, 2, 3}

	s, err := TrainTestSplit(X, y, 0, NewRand(1))
	require.NoError(t, err)
	assert.Empty(t, s.TrainX)
	assert.Len(t, s.TestX, 3)

	s, err = TrainTestSplit(X, y, 1, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, s.TrainX, 3)

	_, err = TrainTestSplit(X, y, 1.5, NewRand(1))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = TrainTestSplit(X, y[:1], 0.5, NewRand(1))
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestPreparePriceData(t *testing.T) {
	series := []float64{100, 101, 103, 104, 106, 109, 110, 112, 115, 117, 118, 121}

	data, err := PreparePriceData(series, 3, 0.75, NewRand(3))
	require.NoError(t, err)
	assert.Equal(t, 9, len(data.TrainX)+len(data.TestX))
	assert.Equal(t, 2, data.Norm.Columns())
	for _, row := range data.TrainX {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	_, err = PreparePriceData(series[:3], 3, 0.75, NewRand(3))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestTextFeatures(t *testing.T) {
	tbl := tables.Default()
	vocab := []string{"штукатур", "стен", "плитк"}

	v := TextFeatures(tbl, "Штукатурка стен 100 м²", vocab)
	require.Len(t, v, len(vocab)+TextScalarFeatures)
	assert.Equal(t, []float64{1, 1, 0}, v[:3])
	assert.InDelta(t, 4.0/20.0, v[3], 1e-12)
	assert.Equal(t, 1.0, v[4], "digits")
	assert.Equal(t, 1.0, v[5], "unit")
	assert.InDelta(t, (10.0+4+3+2)/4/10, v[6], 1e-12)

	empty := TextFeatures(tbl, "", vocab)
	assert.Equal(t, make([]float64, len(vocab)+TextScalarFeatures), empty)
}

func TestTextFeatures_MatchesLikeCategoryResolution(t *testing.T) {
	tbl := tables.Default()
	vocab := []string{"выравнивание стен", "вывоз мусор", "кладк"}

	v := TextFeatures(tbl, "Выравнивание стен и вывоз мусора", vocab)
	assert.Equal(t, []float64{1, 1, 0}, v[:3])

	v = TextFeatures(tbl, "Укладка бордюра", vocab)
	assert.Equal(t, []float64{0, 0, 0}, v[:3])
	_, ok := tbl.ResolveCategory("Укладка бордюра")
	assert.False(t, ok)
}

func TestPrepareClassificationData(t *testing.T) {
	tbl := tables.Default()
	samples := []items.TextSample{
		{Text: "Штукатурка стен", Category: "plastering"},
		{Text: "Укладка плитки", Category: "tiling"},
		{Text: "Что-то непонятное", Category: "unknown"},
	}

	data, err := PrepareClassificationData(tbl, samples, KeywordVocabulary(tbl), []string{"plastering", "tiling"}, 1, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, data.TrainX, 2, "unknown categories are skipped")
	assert.ElementsMatch(t, []int{0, 1}, data.TrainY)
}

func TestPrepareAnomalyData(t *testing.T) {
	batch := []items.Item{{Price: 10}, {Price: 20}, {Price: 30}}
	out := PrepareAnomalyData(batch)
	require.Len(t, out, 3)
	assert.Less(t, out[0].ZScore, 0.0)
	assert.Equal(t, 0.0, out[1].ZScore)
	assert.Greater(t, out[2].ZScore, 0.0)

	flat := PrepareAnomalyData([]items.Item{{Price: 5}, {Price: 5}})
	assert.Equal(t, 0.0, flat[0].ZScore)
	assert.Empty(t, PrepareAnomalyData(nil))
}

func TestGenerateSyntheticPriceSeries(t *testing.T) {
	tbl := tables.Default()
	start := time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC)

	series := GenerateSyntheticPriceSeries(tbl, 1000, 24, start, NewRand(5))
	require.Len(t, series, 24)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), series[23].Date)

	for _, p := range series {
		assert.Greater(t, p.Price, 0.0)
	}
	// same month one year apart differs by the drift only, up to noise
	ratio := series[12].Price / series[0].Price
	assert.InDelta(t, 1.0617, ratio, 0.025)

	assert.Empty(t, GenerateSyntheticPriceSeries(tbl, 1000, 0, start, NewRand(5)))
}

func TestGenerateSyntheticTextSamples(t *testing.T) {
	tbl := tables.Default()
	samples := GenerateSyntheticTextSamples(tbl, 5, NewRand(8))
	assert.Len(t, samples, 5*len(tbl.Categories))

	counts := map[string]int{}
	for _, s := range samples {
		assert.NotEmpty(t, s.Text)
		assert.NotContains(t, s.Text, "%")
		counts[s.Category]++
	}
	for _, c := range tbl.Categories {
		assert.Equal(t, 5, counts[c.Key])
	}
}

func TestGenerateSyntheticHistories(t *testing.T) {
	tbl := tables.Default()
	h := GenerateSyntheticHistories(tbl, 12, time.Now(), NewRand(2))
	assert.Len(t, h, len(tbl.BaselinePrices))
	assert.Len(t, h["plastering"], 12)
}

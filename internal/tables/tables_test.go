package tables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValidAndShared(t *testing.T) {
	a := Default()
	require.NoError(t, a.Validate())
	assert.Same(t, a, Default())
	assert.False(t, a.Fingerprint().IsEmpty())
}

func TestRegionalFactor(t *testing.T) {
	tb := Default()
	tests := []struct {
		region string
		want   float64
	}{
		{"moscow", 1.25},
		{"Москва", 1.25},
		{"novosibirsk", 0.95},
		{"Санкт-Петербург", 1.15},
		{"atlantis", 1.0},
		{"", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			assert.Equal(t, tt.want, tb.RegionalFactor(tt.region))
		})
	}
	assert.Equal(t, DefaultRegion, tb.NormalizeRegion("atlantis"))
}

func TestSeasonalFactor(t *testing.T) {
	tb := Default()
	assert.Equal(t, 0.95, tb.SeasonalFactor(time.January))
	assert.Equal(t, 1.08, tb.SeasonalFactor(time.June))
	assert.Equal(t, 1.0, tb.SeasonalFactor(time.Month(13)))
}

func TestCategoryVolatility(t *testing.T) {
	tb := Default()
	assert.Equal(t, 0.05, tb.CategoryVolatility("plastering"))
	assert.Equal(t, 0.15, tb.CategoryVolatility("Металлоконструкции"))
	assert.Equal(t, tb.DefaultVolatility, tb.CategoryVolatility("landscaping"))
	assert.True(t, tb.IsHighVolatility("electrical"))
	assert.False(t, tb.IsHighVolatility("plastering"))
}

func TestResolveCategory(t *testing.T) {
	tb := Default()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"plastering", "plastering", true},
		{"Штукатурные работы", "plastering", true},
		{"Укладка ламината", "flooring", true},
		{"landscaping", "", false},
		{"", "", false},
		{"Укладка бордюра", "", false},
		{"Кладка газобетона", "masonry", true},
		{"Демонтаж кирпичной перегородки", "masonry", true},
		{"Демонтаж и вывоз мусора", "demolition", true},
	}
	for _, tt := range tests {
		got, ok := tb.ResolveCategory(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidate_RejectsBrokenTables(t *testing.T) {
	broken := builtin()
	broken.Seasonal[3] = 0
	assert.Error(t, broken.Validate())

	broken = builtin()
	broken.Categories = append(broken.Categories, broken.Categories[0])
	assert.Error(t, broken.Validate())

	var nilTables *Tables
	assert.Error(t, nilTables.Validate())
}

func TestQuantityPattern(t *testing.T) {
	m := QuantityPattern.FindAllStringSubmatch("штукатурка 100 м² и 2,5 т смеси", -1)
	require.Len(t, m, 2)
	assert.Equal(t, "100", m[0][1])
	assert.Equal(t, "м²", m[0][2])
	assert.Equal(t, "2,5", m[1][1])
	assert.Equal(t, "т", m[1][2])
	assert.True(t, Default().IsUnit("шт"))
}

func TestQuantityPattern_NormUnits(t *testing.T) {
	tests := []struct {
		in   string
		qty  string
		unit string
	}{
		{"прокладка кабеля 3 км", "3", "км"},
		{"планировка 0,5 га", "0,5", "га"},
		{"трудозатраты 16 чел-ч", "16", "чел-ч"},
		{"экскаватор 4,5 маш-ч", "4,5", "маш-ч"},
		{"штукатурка 2 100 м²", "2", "100 м²"},
		{"бетон 1,2 100 м³", "1,2", "100 м³"},
		{"установка 3 10 шт", "3", "10 шт"},
		{"плинтус 12 п.м", "12", "п.м"},
		{"штукатурка 2100 м²", "2100", "м²"},
	}
	for _, tt := range tests {
		m := QuantityPattern.FindStringSubmatch(tt.in)
		require.NotNil(t, m, tt.in)
		assert.Equal(t, tt.qty, m[1], tt.in)
		assert.Equal(t, tt.unit, m[2], tt.in)
	}

	tb := Default()
	for _, u := range []string{"км", "га", "чел-ч", "маш-ч", "п.м", "100 м²", "100 м³", "10 шт"} {
		assert.True(t, tb.IsUnit(u), u)
	}
	assert.False(t, tb.IsUnit("ведро"))
}

func TestText_MatchesWordStarts(t *testing.T) {
	doc := NewText("Укладка плитки, выравнивание стен (п.м.)")
	assert.Equal(t, []string{"укладка", "плитки", "выравнивание", "стен", "п.м"}, doc.Tokens())
	assert.True(t, doc.Matches("плитк"))
	assert.True(t, doc.Matches("Выравнивание стен"))
	assert.False(t, doc.Matches("кладк"))
	assert.False(t, doc.Matches("лит"))
	assert.Equal(t, 2, doc.CountMatches([]string{"укладк", "стен", "бетон"}))
}

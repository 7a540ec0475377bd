package dataprep

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/internal/tables"
)

// Synthetic series drift by this much per month before seasonality and noise
const (
	syntheticMonthlyDrift = 0.005
	syntheticNoise        = 0.01
)

// GenerateSyntheticPriceSeries produces months monthly price points starting at start's
// month, with upward drift, the table's seasonal multiplier and ±1% noise. It is meant
// for bootstrapping and tests, never as reference truth.
func GenerateSyntheticPriceSeries(t *tables.Tables, basePrice float64, months int, start time.Time, rng *rand.Rand) []items.PricePoint {
	if months <= 0 || basePrice <= 0 {
		return []items.PricePoint{}
	}
	if rng == nil {
		rng = NewRand(0)
	}

	first := core.MonthStart(start)
	out := make([]items.PricePoint, months)
	price := basePrice
	for i := 0; i < months; i++ {
		date := first.AddDate(0, i, 0)
		noise := 1 + (rng.Float64()*2-1)*syntheticNoise
		out[i] = items.PricePoint{
			Date:  date,
			Price: price * t.SeasonalFactor(date.Month()) * noise,
		}
		price *= 1 + syntheticMonthlyDrift
	}
	return out
}

// GenerateSyntheticHistories builds one synthetic series per category from the middle of
// its baseline price list
func GenerateSyntheticHistories(t *tables.Tables, months int, start time.Time, rng *rand.Rand) map[string][]items.PricePoint {
	out := make(map[string][]items.PricePoint, len(t.BaselinePrices))
	for _, c := range t.Categories {
		prices := t.BaselinePrices[c.Key]
		if len(prices) == 0 {
			continue
		}
		out[c.Key] = GenerateSyntheticPriceSeries(t, prices[len(prices)/2], months, start, rng)
	}
	return out
}

var textTemplates = []string{
	"%s %d м²",
	"%s, объем %d м2",
	"Выполнить: %s",
	"%s: %d м²",
	"%s по смете %d шт",
}

var categoryPhrases = map[string][]string{
	"plastering": {"Штукатурка стен гипсовой смесью", "Шпаклевка потолка", "Выравнивание стен штукатуркой", "Штукатурка откосов"},
	"painting":   {"Покраска стен водоэмульсионной краской", "Окраска потолка", "Покраска деревянных окон", "Грунтовка и покраска стен"},
	"tiling":     {"Укладка плитки на пол", "Облицовка стен керамической плиткой", "Укладка керамогранита", "Облицовка фартука плиткой"},
	"flooring":   {"Укладка ламината", "Устройство стяжки пола", "Настил линолеума", "Укладка паркета"},
	"electrical": {"Прокладка кабеля в гофре", "Монтаж розеток", "Установка выключателей", "Монтаж электропроводки"},
	"plumbing":   {"Монтаж труб водоснабжения", "Установка смесителя", "Монтаж канализации", "Установка унитаза"},
	"demolition": {"Демонтаж перегородок", "Демонтаж плитки", "Снос стен", "Демонтаж покрытия пола"},
	"roofing":    {"Монтаж кровли из профнастила", "Укладка черепицы", "Устройство водостока", "Гидроизоляция кровли"},
	"concrete":   {"Бетонирование фундамента", "Заливка бетона в опалубку", "Устройство монолитной плиты перекрытия", "Армирование фундамента"},
	"masonry":    {"Кладка кирпичных стен", "Кладка перегородок из газоблока", "Кирпичная кладка", "Кладка стен из блоков"},
	"drywall":    {"Монтаж гипсокартона на потолок", "Устройство перегородок из ГКЛ", "Обшивка стен гипсокартоном", "Монтаж каркаса под гипсокартон"},
}

// GenerateSyntheticTextSamples fills templates with per-category work phrases, perCategory
// samples for every category in the tables.
func GenerateSyntheticTextSamples(t *tables.Tables, perCategory int, rng *rand.Rand) []items.TextSample {
	if perCategory <= 0 {
		return []items.TextSample{}
	}
	if rng == nil {
		rng = NewRand(0)
	}

	out := make([]items.TextSample, 0, perCategory*len(t.Categories))
	for _, c := range t.Categories {
		phrases := categoryPhrases[c.Key]
		if len(phrases) == 0 {
			phrases = []string{c.Name}
		}
		for i := 0; i < perCategory; i++ {
			phrase := phrases[rng.Intn(len(phrases))]
			tmpl := textTemplates[rng.Intn(len(textTemplates))]
			var text string
			if strings.Contains(tmpl, "%d") {
				text = fmt.Sprintf(tmpl, phrase, 5+rng.Intn(200))
			} else {
				text = fmt.Sprintf(tmpl, phrase)
			}
			out = append(out, items.TextSample{Text: text, Category: c.Key})
		}
	}
	return out
}

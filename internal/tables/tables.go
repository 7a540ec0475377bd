// Package tables holds the immutable lookup tables shared by every inference model:
// seasonal and regional multipliers, category volatility, work-category keywords,
// alternatives for cost optimization and baseline reference prices.
//
// A *Tables value is built once at startup and passed by pointer into model
// constructors. Nothing mutates it after construction, so it is safe for concurrent
// readers without locking.
package tables

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"estimateml/domain/core"
)

// VolatilityBucket maps category-name substrings to a price volatility estimate
type VolatilityBucket struct {
	Match      []string
	Volatility float64
}

// Subcategory narrows a category by keyword
type Subcategory struct {
	Key      string
	Keywords []string
}

// Normative is a reference price-book entry suggested for a classified work
type Normative struct {
	Code        string
	Name        string
	Subcategory string
}

// Category is a work category with its classification keywords
type Category struct {
	Key           string
	Name          string
	Keywords      []string
	Subcategories []Subcategory
	Normatives    []Normative
}

// Term maps a word stem to the canonical name reported in extracted entities
type Term struct {
	Stem string
	Name string
}

// Alternative is a substitute material or method for a category. PriceRatio is relative
// to the category's reference (highest quality) option; Quality is in [0,1].
type Alternative struct {
	Name       string
	PriceRatio float64
	Quality    float64
}

// Tables is the full set of constant lookups
type Tables struct {
	Seasonal                [12]float64 // index 0 is January
	Regions                 map[string]float64
	RegionAliases           map[string]string
	DefaultRegionFactor     float64
	Volatility              []VolatilityBucket
	DefaultVolatility       float64
	HighVolatilityThreshold float64
	AnnualInflation         float64
	Categories              []Category
	Materials               []Term
	WorkVerbs               []Term
	UnitAbbreviations       []string
	Alternatives            map[string][]Alternative
	BaselinePrices          map[string][]float64
	ProjectTemplates        map[string][]string
}

// GeneralCategory is reported when no work category scores well enough
const (
	GeneralCategory    = "general"
	GeneralSubcategory = "general_works"
	DefaultRegion      = "default"
)

// QuantityPattern matches a number followed by a construction unit, e.g. "100 м²", "2,5 т"
// or "16 чел-ч". Norm units with a multiplier ("3 100 м²", "4 10 шт") keep the multiplier
// in the unit group.
var QuantityPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*((?:1000|100|10)\s?(?:м²|м³|м2|м3|кв\.?\s?м|куб\.?\s?м|п\.?\s?м|шт|кг)|км|га|чел[-.]ч|маш[-.]ч|м²|м³|м2|м3|кв\.?\s?м|куб\.?\s?м|п\.?\s?м|шт|кг|компл|мм|см|т|л|м|m2|m3|pcs)(?:[^\p{L}\d]|$)`)

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the process-wide built-in tables, constructed on first use
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables = builtin()
	})
	return defaultTables
}

// Validate checks the invariants every model relies on
func (t *Tables) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: tables are nil", core.ErrInvalidArgument)
	}
	for i, f := range t.Seasonal {
		if f <= 0 {
			return core.NewInvalidArgumentError("seasonal", fmt.Sprintf("month %d factor %g must be positive", i+1, f))
		}
	}
	if t.DefaultRegionFactor <= 0 {
		return core.NewInvalidArgumentError("regions", "default factor must be positive")
	}
	for region, f := range t.Regions {
		if f <= 0 {
			return core.NewInvalidArgumentError("regions", fmt.Sprintf("%s factor must be positive", region))
		}
	}
	if len(t.Categories) == 0 {
		return core.NewInvalidArgumentError("categories", "at least one category is required")
	}
	seen := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		if c.Key == "" || len(c.Keywords) == 0 {
			return core.NewInvalidArgumentError("categories", fmt.Sprintf("category %q needs a key and keywords", c.Key))
		}
		if seen[c.Key] {
			return core.NewInvalidArgumentError("categories", fmt.Sprintf("duplicate category %q", c.Key))
		}
		seen[c.Key] = true
	}
	for cat, alts := range t.Alternatives {
		for _, a := range alts {
			if a.PriceRatio <= 0 || a.Quality < 0 || a.Quality > 1 {
				return core.NewInvalidArgumentError("alternatives", fmt.Sprintf("%s/%s out of range", cat, a.Name))
			}
		}
	}
	return nil
}

// Fingerprint hashes the table contents; analyses record it so results can be traced to a table revision
func (t *Tables) Fingerprint() core.Hash {
	return core.ComputeTableHash(map[string]interface{}{
		"seasonal":     t.Seasonal,
		"regions":      t.Regions,
		"volatility":   t.Volatility,
		"inflation":    t.AnnualInflation,
		"categories":   t.Categories,
		"alternatives": t.Alternatives,
		"baseline":     t.BaselinePrices,
	})
}

// SeasonalFactor returns the multiplier for a calendar month
func (t *Tables) SeasonalFactor(m time.Month) float64 {
	if m < time.January || m > time.December {
		return 1.0
	}
	return t.Seasonal[m-1]
}

// NormalizeRegion maps free-form region input to a table key; unknown input maps to "default"
func (t *Tables) NormalizeRegion(region string) string {
	key := normalizeKey(region)
	if key == "" {
		return DefaultRegion
	}
	if alias, ok := t.RegionAliases[key]; ok {
		key = alias
	}
	if _, ok := t.Regions[key]; ok {
		return key
	}
	return DefaultRegion
}

// RegionalFactor returns the multiplier for a region; unknown regions get the default factor
func (t *Tables) RegionalFactor(region string) float64 {
	key := t.NormalizeRegion(region)
	if f, ok := t.Regions[key]; ok {
		return f
	}
	return t.DefaultRegionFactor
}

// CategoryVolatility looks up volatility by substring match against the category name
func (t *Tables) CategoryVolatility(category string) float64 {
	name := strings.ToLower(category)
	for _, b := range t.Volatility {
		for _, m := range b.Match {
			if strings.Contains(name, m) {
				return b.Volatility
			}
		}
	}
	return t.DefaultVolatility
}

// IsHighVolatility reports whether a category's volatility exceeds the high threshold
func (t *Tables) IsHighVolatility(category string) bool {
	return t.CategoryVolatility(category) > t.HighVolatilityThreshold
}

// Category returns the category with the given key
func (t *Tables) Category(key string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// ResolveCategory maps a free-form category name ("Штукатурные работы", "plastering")
// to a category key: exact key or name first, then the category whose keywords start the
// most words. Ties go to the earlier category.
func (t *Tables) ResolveCategory(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	norm := normalizeKey(lower)
	for _, c := range t.Categories {
		if c.Key == norm || strings.ToLower(c.Name) == lower {
			return c.Key, true
		}
	}

	text := NewText(lower)
	best, bestCount := "", 0
	for _, c := range t.Categories {
		if n := text.CountMatches(c.Keywords); n > bestCount {
			best, bestCount = c.Key, n
		}
	}
	return best, bestCount > 0
}

// IsUnit reports whether token is a known unit abbreviation
func (t *Tables) IsUnit(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, u := range t.UnitAbbreviations {
		if token == u {
			return true
		}
	}
	return false
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(s)
}

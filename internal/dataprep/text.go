package dataprep

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"estimateml/domain/items"
	"estimateml/internal/tables"
)

// TextScalarFeatures is the number of hand-engineered values appended after the vocabulary indicators
const TextScalarFeatures = 4

// TextFeatures returns one indicator per vocabulary keyword, matched the way the classifier
// matches (word-start stems, multi-word keywords as substrings), followed by
// [min(words/20,1), hasDigits, hasUnit, min(avgWordLen/10,1)].
func TextFeatures(t *tables.Tables, text string, vocab []string) []float64 {
	doc := tables.NewText(text)
	tokens := doc.Tokens()
	v := make([]float64, len(vocab)+TextScalarFeatures)

	for i, kw := range vocab {
		if doc.Matches(kw) {
			v[i] = 1
		}
	}

	words, letters := 0, 0
	hasDigits, hasUnit := false, false
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		words++
		letters += utf8.RuneCountInString(tok)
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			hasDigits = true
		}
		if t.IsUnit(tok) {
			hasUnit = true
		}
	}
	if !hasUnit && tables.QuantityPattern.MatchString(strings.ToLower(text)) {
		hasUnit = true
	}

	base := len(vocab)
	v[base] = min(float64(words)/20, 1)
	if hasDigits {
		v[base+1] = 1
	}
	if hasUnit {
		v[base+2] = 1
	}
	if words > 0 {
		v[base+3] = min(float64(letters)/float64(words)/10, 1)
	}
	return v
}

// ClassificationData is a text split with labels as indices into Categories
type ClassificationData struct {
	Split[int]
	Vocab      []string
	Categories []string
}

// PrepareClassificationData featurizes samples against vocab and maps category names to
// indices of categories. Samples with an unknown category are skipped.
func PrepareClassificationData(t *tables.Tables, samples []items.TextSample, vocab, categories []string, ratio float64, rng *rand.Rand) (ClassificationData, error) {
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}

	X := make([][]float64, 0, len(samples))
	labels := make([]int, 0, len(samples))
	for _, s := range samples {
		label, ok := index[s.Category]
		if !ok {
			continue
		}
		X = append(X, TextFeatures(t, s.Text, vocab))
		labels = append(labels, label)
	}

	split, err := TrainTestSplit(X, labels, ratio, rng)
	if err != nil {
		return ClassificationData{}, err
	}
	return ClassificationData{Split: split, Vocab: vocab, Categories: categories}, nil
}

// KeywordVocabulary returns the union of every category keyword, in table order
func KeywordVocabulary(t *tables.Tables) []string {
	seen := make(map[string]bool)
	var vocab []string
	for _, c := range t.Categories {
		for _, kw := range c.Keywords {
			if !seen[kw] {
				seen[kw] = true
				vocab = append(vocab, kw)
			}
		}
	}
	return vocab
}

// CategoryKeys returns every category key in table order
func CategoryKeys(t *tables.Tables) []string {
	keys := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		keys[i] = c.Key
	}
	return keys
}

package tables

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into letter/number runs. Dots stay inside
// tokens so abbreviations such as "п.м" survive.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '.'
	})
}

// Text is lowercased text prepared for keyword matching
type Text struct {
	lower  string
	tokens []string
}

// NewText tokenizes s and trims dots from the token edges
func NewText(s string) Text {
	lower := strings.ToLower(s)
	tokens := Tokenize(lower)
	for i, tok := range tokens {
		tokens[i] = strings.Trim(tok, ".")
	}
	return Text{lower: lower, tokens: tokens}
}

// Tokens returns the word tokens
func (x Text) Tokens() []string { return x.tokens }

// Matches reports whether a keyword stem starts any word, so "кладк" does not match
// "укладка". Multi-word keywords match as substrings of the whole text.
func (x Text) Matches(kw string) bool {
	kw = strings.ToLower(kw)
	if strings.ContainsRune(kw, ' ') {
		return strings.Contains(x.lower, kw)
	}
	for _, tok := range x.tokens {
		if strings.HasPrefix(tok, kw) {
			return true
		}
	}
	return false
}

// CountMatches returns how many of keywords match
func (x Text) CountMatches(keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if x.Matches(kw) {
			n++
		}
	}
	return n
}

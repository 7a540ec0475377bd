package classify

import (
	"strconv"
	"strings"

	"estimateml/domain/results"
	"estimateml/internal/tables"
)

// ExtractEntities pulls quantities with units, known materials and work verbs out of text
func (c *Classifier) ExtractEntities(text string) results.ExtractedEntities {
	lower := strings.ToLower(text)
	e := results.ExtractedEntities{
		Quantities: []results.Quantity{},
		Materials:  []string{},
		Actions:    []string{},
	}

	for _, m := range tables.QuantityPattern.FindAllStringSubmatch(lower, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		e.Quantities = append(e.Quantities, results.Quantity{Value: v, Unit: m[2]})
	}

	if c.tables == nil {
		return e
	}
	tokens := tables.Tokenize(lower)
	e.Materials = matchTerms(tokens, c.tables.Materials)
	e.Actions = matchTerms(tokens, c.tables.WorkVerbs)
	return e
}

// matchTerms returns the canonical names of terms whose stem prefixes a token, in order
// of first appearance and without duplicates
func matchTerms(tokens []string, terms []tables.Term) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, tok := range tokens {
		for _, term := range terms {
			if strings.HasPrefix(tok, term.Stem) {
				if !seen[term.Name] {
					seen[term.Name] = true
					out = append(out, term.Name)
				}
				break
			}
		}
	}
	return out
}

// Package consolidation implements the Consolidation Engine (spec §4.6):
// detecting recurring patterns among records via token-overlap similarity,
// clustering them by time window, preserving outliers, and archiving the
// rest to the compressed tier.
package consolidation

import (
	"strings"
	"unicode"
)

// tokenize splits text into a token frequency map, grounded on beads'
// find_duplicates.go tokenize: lowercased words, letters/digits/hyphen
// only, single-char tokens dropped as noise.
func tokenize(text string) map[string]int {
	tokens := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, w := range words {
		if len(w) > 1 {
			tokens[w]++
		}
	}
	return tokens
}

// jaccardSimilarity computes the Jaccard similarity between two token
// frequency maps, lifted from beads' find_duplicates.go jaccardSimilarity.
func jaccardSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	union := 0
	for token, countA := range a {
		if countB, ok := b[token]; ok {
			if countA < countB {
				intersection += countA
			} else {
				intersection += countB
			}
			if countA > countB {
				union += countA
			} else {
				union += countB
			}
		} else {
			union += countA
		}
	}
	for token, countB := range b {
		if _, ok := a[token]; !ok {
			union += countB
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

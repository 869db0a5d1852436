// Package expander widens sparse lesson topics with related curriculum
// keywords. A topic like "matter" rarely matches chapter titles directly, so
// the retriever re-queries with the expansion terms when the first pass comes
// back thin.
package expander

import (
	"sort"
	"strings"
)

// expansions maps topic substrings to related curriculum terms. Keys are
// matched by containment against the normalised topic, so "states of matter"
// picks up the "matter" entry.
var expansions = map[string][]string{
	// science
	"matter":  {"chemistry", "chemical", "atomic", "molecule", "reaction", "element"},
	"energy":  {"physics", "force", "motion", "power", "work"},
	"biology": {"cell", "organism", "life", "living", "ecosystem"},
	"earth":   {"geology", "planet", "rock", "mineral", "earth science"},
	"cell":    {"biology", "organism", "nucleus", "membrane", "tissue"},
	"force":   {"physics", "motion", "newton", "acceleration", "energy"},

	// math
	"algebra":    {"equation", "variable", "expression", "linear", "polynomial"},
	"geometry":   {"angle", "triangle", "circle", "area", "perimeter", "shape"},
	"fraction":   {"numerator", "denominator", "decimal", "ratio", "percentage"},
	"statistics": {"mean", "median", "mode", "probability", "data"},
	"equation":   {"algebra", "variable", "solve", "linear"},

	// english
	"grammar":       {"sentence", "verb", "noun", "tense", "punctuation"},
	"composition":   {"essay", "writing", "paragraph", "argument", "narrative"},
	"comprehension": {"reading", "passage", "inference", "summary", "vocabulary"},
	"letter":        {"writing", "formal", "informal", "address", "composition"},
}

// Expand returns the expansion terms for a topic. Matching is by normalised
// substring containment against the lookup table; terms from every matching
// entry are merged, de-duplicated, and sorted so the output is deterministic.
// An unknown topic yields an empty slice.
func Expand(topic string) []string {
	normalized := strings.ToLower(strings.TrimSpace(topic))
	if normalized == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for key, related := range expansions {
		if !strings.Contains(normalized, key) {
			continue
		}
		for _, term := range related {
			if term == normalized {
				continue
			}
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}

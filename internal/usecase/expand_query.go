// Package usecase holds the ingestion and answer pipelines.
package usecase

import "strings"

const maxQueryVariants = 3

// French articles and prepositions stripped for the reduced query variant.
var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "de": {}, "des": {},
	"du": {}, "sur": {}, "pour": {}, "dans": {}, "avec": {},
}

// QueryExpander widens recall by deriving alternative query strings from the
// original question.
type QueryExpander struct{}

func NewQueryExpander() *QueryExpander {
	return &QueryExpander{}
}

// Expand returns at most three variants: the original query first, then
// individual significant words not already present, then the query with stop
// words removed. Deterministic, order-preserving, deduplicated
// case-insensitively.
func (e *QueryExpander) Expand(query string) []string {
	var candidates []string
	candidates = append(candidates, query)

	words := strings.Fields(strings.ToLower(query))
	for _, word := range words {
		if len(word) > 3 {
			candidates = append(candidates, word)
		}
	}

	var filtered []string
	for _, word := range words {
		if _, stop := stopWords[word]; !stop {
			filtered = append(filtered, word)
		}
	}
	if len(filtered) > 1 {
		candidates = append(candidates, strings.Join(filtered, " "))
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
		if len(out) == maxQueryVariants {
			break
		}
	}
	return out
}

// Package extract mines (word, definition) candidates from free document
// text and ranks them with a heuristic confidence score.
package extract

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxCandidates caps the size of one extraction result
	MaxCandidates = 50
	// SelectThreshold is the confidence at which a candidate is preselected
	SelectThreshold = 0.6 // inclusive: "Abate: to reduce in intensity" scores exactly 0.6 and is selected
	// minConfidence is exclusive: candidates at or below it are dropped
	minConfidence = 0.3

	minDefinitionLen = 10 // exclusive
	maxDefinitionLen = 300
	minTokens        = 3
)

// Candidate is an unconfirmed word/definition pair pending user review
type Candidate struct {
	Word       string  `json:"word"`
	Definition string  `json:"definition"`
	Confidence float64 `json:"confidence"`
	Selected   bool    `json:"selected"`
}

// Extract returns ranked candidates found in text. existing holds the
// lowercased words the caller already owns; those are never returned.
// The function is pure and never fails: text without recognisable
// patterns yields an empty result.
func Extract(text string, existing map[string]struct{}) []Candidate {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	seen := make(map[string]struct{})
	candidates := make([]Candidate, 0)

	for _, m := range findMatches(text) {
		word := strings.TrimSpace(m.word)
		definition := strings.TrimSpace(m.definition)

		if !acceptableDefinition(definition) {
			continue
		}

		confidence := Confidence(word, definition)
		key := strings.ToLower(word)

		if _, ok := existing[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		if confidence <= minConfidence {
			continue
		}

		seen[key] = struct{}{}
		candidates = append(candidates, Candidate{
			Word:       word,
			Definition: definition,
			Confidence: confidence,
			Selected:   confidence >= SelectThreshold,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}

// acceptableDefinition applies the length, digits and token-count filters
func acceptableDefinition(definition string) bool {
	n := utf8.RuneCountInString(definition)
	if n <= minDefinitionLen || n >= maxDefinitionLen {
		return false
	}
	if digitsOnly.MatchString(definition) {
		return false
	}
	return len(strings.Fields(definition)) >= minTokens
}

package extract

import "unicode/utf8"

// Score weights. The combination is a hand-tuned heuristic, not a
// calibrated probability, and must stay exactly as is.
const (
	baseScore         = 0.5
	longBonus         = 0.2 // definition longer than 50
	veryLongBonus     = 0.1 // definition longer than 100
	cueBonus          = 0.2
	partOfSpeechBonus = 0.1
	shortPenalty      = 0.3 // definition shorter than 20
	yearPenalty       = 0.2
	longWordBonus     = 0.1 // word longer than 6
	capitalizedBonus  = 0.1
)

// Confidence estimates how likely (word, definition) is a genuine entry.
// The result is clamped to [0, 1].
func Confidence(word, definition string) float64 {
	n := utf8.RuneCountInString(definition)
	score := baseScore

	if n > 50 {
		score += longBonus
	}
	if n > 100 {
		score += veryLongBonus
	}
	if definitionCue.MatchString(definition) {
		score += cueBonus
	}
	if partOfSpeech.MatchString(definition) {
		score += partOfSpeechBonus
	}
	if n < 20 {
		score -= shortPenalty
	}
	if fourDigits.MatchString(definition) {
		score -= yearPenalty
	}
	if utf8.RuneCountInString(word) > 6 {
		score += longWordBonus
	}
	if capitalizedWord.MatchString(word) {
		score += capitalizedBonus
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

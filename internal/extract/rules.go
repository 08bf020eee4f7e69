package extract

import "regexp"

// rule captures a candidate word in group 1 and its definition in group 2
type rule struct {
	name    string
	pattern *regexp.Regexp
}

// rules are evaluated independently over the whole text and their matches
// concatenated in this order. Overlapping spans are resolved later by the
// word-level dedup only.
var rules = []rule{
	{name: "colon", pattern: regexp.MustCompile(`([A-Z][a-z]+)[\s]*[:\-][\s]*([^.\n]+)`)},
	{name: "parenthetical", pattern: regexp.MustCompile(`([A-Z][a-z]+)\s*\(([^)]+)\)`)},
	{name: "bold", pattern: regexp.MustCompile(`\*\*([A-Z][a-z]+)\*\*[\s]*[:\-]?[\s]*([^.\n]+)`)},
	{name: "numbered", pattern: regexp.MustCompile(`\d+\.?\s*([A-Z][a-z]+)[\s]*[:\-][\s]*([^.\n]+)`)},
	{name: "line", pattern: regexp.MustCompile(`(?m)^([A-Z][a-z]+)[\s]*[:\-][\s]*(.+)$`)},
}

var (
	digitsOnly      = regexp.MustCompile(`^\d+$`)
	definitionCue   = regexp.MustCompile(`(?i)\b(means?|refers? to|defined as|is a|are)\b`)
	partOfSpeech    = regexp.MustCompile(`(?i)\b(adjective|noun|verb|adverb)\b`)
	fourDigits      = regexp.MustCompile(`\d{4}`)
	capitalizedWord = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

// match is one raw (word, definition) hit before filtering
type match struct {
	word       string
	definition string
}

// findMatches runs every rule over text and concatenates the results
func findMatches(text string) []match {
	var out []match
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			out = append(out, match{word: m[1], definition: m[2]})
		}
	}
	return out
}

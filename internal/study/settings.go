package study

import (
	"fmt"

	"github.com/example/grevocab/pkg/models"
)

const (
	MinWordsPerSession = 1
	MaxWordsPerSession = 200
	MinTimePerWord     = 5
	MaxTimePerWord     = 600
)

// Menu choices offered to the user
var (
	WordsPerSessionOptions = []int{10, 25, 50, 100}
	TimePerWordOptions     = []int{15, 30, 45, 60}
)

// ValidateSettings checks that settings are within the supported ranges
func ValidateSettings(s models.StudySettings) error {
	if s.WordsPerSession < MinWordsPerSession || s.WordsPerSession > MaxWordsPerSession {
		return fmt.Errorf("%w: words per session must be between %d and %d, got %d",
			ErrInvalidSettings, MinWordsPerSession, MaxWordsPerSession, s.WordsPerSession)
	}
	if s.TimePerWord < MinTimePerWord || s.TimePerWord > MaxTimePerWord {
		return fmt.Errorf("%w: time per word must be between %d and %d seconds, got %d",
			ErrInvalidSettings, MinTimePerWord, MaxTimePerWord, s.TimePerWord)
	}
	return nil
}

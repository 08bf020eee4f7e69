package study

import (
	"math/rand/v2"

	"github.com/jonboulle/clockwork"

	"github.com/example/grevocab/pkg/models"
)

type options struct {
	clock clockwork.Clock
	rnd   *rand.Rand
}

// Option configures session construction
type Option func(*options)

// WithClock sets the clock used for start and total times
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithRand sets the random source used to shuffle the pool
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rnd = r
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// shuffle applies one Fisher-Yates permutation in place
func shuffle(words []models.VocabularyEntry, rnd *rand.Rand) {
	swap := func(i, j int) {
		words[i], words[j] = words[j], words[i]
	}
	if rnd == nil {
		rand.Shuffle(len(words), swap)
		return
	}
	rnd.Shuffle(len(words), swap)
}

// selectWords filters, shuffles and truncates pool into session words.
// pool itself is never modified.
func selectWords(pool []models.VocabularyEntry, settings models.StudySettings, studied *StudiedSet, rnd *rand.Rand) ([]models.VocabularyEntry, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	words := make([]models.VocabularyEntry, 0, len(pool))
	for _, e := range pool {
		if settings.UniqueWordsMode && studied.Has(e.ID) {
			continue
		}
		words = append(words, e)
	}

	if len(words) == 0 {
		return nil, &EmptyPoolError{
			PoolSize: len(pool),
			Unique:   settings.UniqueWordsMode,
		}
	}

	if settings.ShuffleWords {
		shuffle(words, rnd)
	}

	if len(words) > settings.WordsPerSession {
		words = words[:settings.WordsPerSession]
	}
	return words, nil
}

// Package study assembles study sessions from a user's vocabulary and
// drives them either word by word on a timer or as a checklist.
package study

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/example/grevocab/pkg/models"
)

// State is the lifecycle stage of a session or checklist
type State int

const (
	StateConfiguring State = iota
	StateActive
	StateComplete
)

// StateReading is the active stage of a checklist
const StateReading = StateActive

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session is a timed, one-word-at-a-time study session.
// It is not safe for concurrent use; Countdown serialises access to it.
type Session struct {
	Words            []models.VocabularyEntry
	CurrentIndex     int
	TimePerWord      int // seconds
	Remaining        int // seconds left for the current word
	AutoAdvance      bool
	UniqueWordsMode  bool
	IsActive         bool
	IsPaused         bool
	ShowDefinition   bool
	WordsStudied     int
	SessionStartTime time.Time
	TotalTime        time.Duration
	State            State

	studied *StudiedSet
	clock   clockwork.Clock
}

// BuildSession selects the words for a new session and starts it.
// In unique-words mode ids in studied are skipped and every advanced word
// is added to studied; a nil studied set is treated as empty.
func BuildSession(pool []models.VocabularyEntry, settings models.StudySettings, studied *StudiedSet, opts ...Option) (*Session, error) {
	o := buildOptions(opts)

	words, err := selectWords(pool, settings, studied, o.rnd)
	if err != nil {
		return nil, err
	}

	if studied == nil {
		studied = NewStudiedSet()
	}

	return &Session{
		Words:            words,
		TimePerWord:      settings.TimePerWord,
		Remaining:        settings.TimePerWord,
		AutoAdvance:      settings.AutoAdvance,
		UniqueWordsMode:  settings.UniqueWordsMode,
		IsActive:         true,
		ShowDefinition:   true,
		SessionStartTime: o.clock.Now(),
		State:            StateActive,
		studied:          studied,
		clock:            o.clock,
	}, nil
}

// Current returns the word being shown
func (s *Session) Current() (models.VocabularyEntry, bool) {
	if !s.IsActive || s.CurrentIndex >= len(s.Words) {
		return models.VocabularyEntry{}, false
	}
	return s.Words[s.CurrentIndex], true
}

// Studied returns the set advanced words are recorded in
func (s *Session) Studied() *StudiedSet {
	return s.studied
}

// Advance finishes the current word and returns its id. Advancing from the
// last word completes the session. Manual advance works while paused.
func (s *Session) Advance() (string, error) {
	if !s.IsActive {
		return "", ErrSessionInactive
	}

	id := s.Words[s.CurrentIndex].ID
	if s.UniqueWordsMode {
		s.studied.Add(id)
	}
	s.WordsStudied++

	if s.CurrentIndex >= len(s.Words)-1 {
		s.IsActive = false
		s.IsPaused = false
		s.CurrentIndex = len(s.Words)
		s.TotalTime = s.clock.Since(s.SessionStartTime)
		s.State = StateComplete
		return id, nil
	}

	s.CurrentIndex++
	s.ShowDefinition = true
	s.Remaining = s.TimePerWord
	return id, nil
}

// Pause stops timer-driven advancing
func (s *Session) Pause() error {
	if !s.IsActive {
		return ErrSessionInactive
	}
	s.IsPaused = true
	return nil
}

// Resume re-enables timer-driven advancing
func (s *Session) Resume() error {
	if !s.IsActive {
		return ErrSessionInactive
	}
	s.IsPaused = false
	return nil
}

// TogglePause flips the paused flag and returns the new value
func (s *Session) TogglePause() (bool, error) {
	if !s.IsActive {
		return false, ErrSessionInactive
	}
	s.IsPaused = !s.IsPaused
	return s.IsPaused, nil
}

// ToggleDefinition shows or hides the definition of the current word
func (s *Session) ToggleDefinition() bool {
	s.ShowDefinition = !s.ShowDefinition
	return s.ShowDefinition
}

// Reset abandons the session and returns it to configuration.
// Words already recorded as studied stay recorded.
func (s *Session) Reset() {
	s.IsActive = false
	s.IsPaused = false
	s.State = StateConfiguring
}

// TickResult reports what a single countdown step did
type TickResult struct {
	Remaining int
	Advanced  bool
	EntryID   string
	Complete  bool
}

// Tick moves the per-word countdown by one second. When the countdown
// runs out it restarts and, with auto-advance on, the session advances.
// Paused or inactive sessions are left untouched.
func (s *Session) Tick() TickResult {
	if !s.IsActive || s.IsPaused {
		return TickResult{Remaining: s.Remaining, Complete: s.State == StateComplete}
	}

	if s.Remaining > 1 {
		s.Remaining--
		return TickResult{Remaining: s.Remaining}
	}

	s.Remaining = s.TimePerWord
	if !s.AutoAdvance {
		return TickResult{Remaining: s.Remaining}
	}

	id, _ := s.Advance()
	return TickResult{
		Remaining: s.Remaining,
		Advanced:  true,
		EntryID:   id,
		Complete:  s.State == StateComplete,
	}
}

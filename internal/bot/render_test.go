package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/internal/study"
	"github.com/example/grevocab/pkg/models"
)

func TestParseCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data    string
		want    callback
		wantErr bool
	}{
		{data: "menu", want: callback{Group: "menu"}},
		{data: "rv:all", want: callback{Group: "rv", Action: "all"}},
		{data: "ck:t:12", want: callback{Group: "ck", Action: "t", Arg: 12, HasArg: true}},
		{data: "set:words:25", want: callback{Group: "set", Action: "words", Arg: 25, HasArg: true}},
		{data: "ck:t:x", wantErr: true},
		{data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			t.Parallel()
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	t.Parallel()

	cb, err := parseCallback(callbackData(groupChecklist, "t", 7))
	require.NoError(t, err)
	assert.Equal(t, callback{Group: groupChecklist, Action: "t", Arg: 7, HasArg: true}, cb)
}

func TestParseWordDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    models.WordDefinition
		wantErr bool
	}{
		{in: "abate - to lessen", want: models.WordDefinition{Word: "abate", Definition: "to lessen"}},
		{in: "  Laconic:  brief  ", want: models.WordDefinition{Word: "Laconic", Definition: "brief"}},
		{in: "well-heeled - wealthy", want: models.WordDefinition{Word: "well-heeled", Definition: "wealthy"}},
		{in: "venal – open to bribery", want: models.WordDefinition{Word: "venal", Definition: "open to bribery"}},
		{in: "abate", wantErr: true},
		{in: " - no word", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseWordDefinition(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOption(t *testing.T) {
	t.Parallel()

	opts := []int{10, 25, 50}
	assert.Equal(t, 25, nextOption(opts, 10))
	assert.Equal(t, 10, nextOption(opts, 50))
	assert.Equal(t, 10, nextOption(opts, 33))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m 05s", formatDuration(125*time.Second+300*time.Millisecond))
}

func TestRenderWordList(t *testing.T) {
	t.Parallel()

	assert.Contains(t, renderWordList("Words", nil), "No words yet")

	entries := make([]models.VocabularyEntry, 500)
	for i := range entries {
		entries[i] = models.VocabularyEntry{Word: fmt.Sprintf("word%03d", i), Definition: strings.Repeat("d", 60)}
	}
	text := renderWordList("Words", entries)

	assert.LessOrEqual(t, len(text), maxMessageLen)
	assert.True(t, strings.HasPrefix(text, "Words (500)"))
	assert.Contains(t, text, "\n1. word000: ")
	assert.Contains(t, text, "more")
}

func TestEmptyPoolText(t *testing.T) {
	t.Parallel()

	assert.Contains(t, emptyPoolText(&study.EmptyPoolError{PoolSize: 3, Unique: true}), "/reset")
	assert.Contains(t, emptyPoolText(&study.EmptyPoolError{}), "/add")
}

func TestRenderReview(t *testing.T) {
	t.Parallel()

	r := extract.NewReview([]extract.Candidate{
		{Word: "Abate", Definition: "to lessen in intensity", Confidence: 0.9, Selected: true},
		{Word: "Venal", Definition: "open to bribery", Confidence: 0.4},
	})

	text, markup := renderReview(r, false)
	assert.Contains(t, text, "Abate (90%)")
	assert.NotContains(t, text, "Venal")
	assert.Contains(t, text, "1 low-confidence")
	// one candidate row, select row, low-confidence row, save row
	assert.Len(t, markup.InlineKeyboard, 4)

	text, markup = renderReview(r, true)
	assert.Contains(t, text, "Venal (40%)")
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "rv:t:1", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestRenderSession(t *testing.T) {
	t.Parallel()

	pool := []models.VocabularyEntry{{ID: "a", Word: "abate", Definition: "to lessen"}}
	settings := models.StudySettings{WordsPerSession: 10, TimePerWord: 15}
	clock := clockwork.NewFakeClock()

	s, err := study.BuildSession(pool, settings, nil, study.WithClock(clock))
	require.NoError(t, err)

	text, markup := renderSession(s)
	assert.Contains(t, text, "Word 1 of 1")
	assert.Contains(t, text, "ABATE")
	assert.Contains(t, text, "to lessen")
	assert.Len(t, markup.InlineKeyboard, 2)

	s.ToggleDefinition()
	require.NoError(t, s.Pause())
	text, _ = renderSession(s)
	assert.Contains(t, text, "(definition hidden)")
	assert.Contains(t, text, "paused")

	clock.Advance(65 * time.Second)
	_, err = s.Advance()
	require.NoError(t, err)
	text, markup = renderSession(s)
	assert.Equal(t, "🎉 Session complete! You studied 1 word in 1m 05s.", text)
	assert.Empty(t, markup.InlineKeyboard)
}

func TestRenderChecklist_Pages(t *testing.T) {
	t.Parallel()

	pool := make([]models.VocabularyEntry, 25)
	for i := range pool {
		pool[i] = models.VocabularyEntry{ID: fmt.Sprint(i), Word: fmt.Sprintf("w%d", i), Definition: "d"}
	}
	c, err := study.BuildChecklist(pool, models.StudySettings{WordsPerSession: 25, TimePerWord: 15}, nil)
	require.NoError(t, err)

	text, markup := renderChecklist(c, 0)
	assert.Contains(t, text, "0 of 25 read (page 1/3)")
	// ten items, nav, finish
	assert.Len(t, markup.InlineKeyboard, 12)
	assert.Len(t, markup.InlineKeyboard[10], 1)

	text, markup = renderChecklist(c, 99)
	assert.Contains(t, text, "(page 3/3)")
	assert.Len(t, markup.InlineKeyboard, 7)
	assert.Equal(t, "ck:t:20", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestRenderSettings(t *testing.T) {
	t.Parallel()

	_, markup := renderSettings(models.DefaultStudySettings())

	assert.Equal(t, "set:words:50", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "set:time:45", *markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "Auto-advance: on", markup.InlineKeyboard[2][0].Text)
}

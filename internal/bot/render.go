package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/internal/study"
	"github.com/example/grevocab/pkg/models"
)

// Callback data
const (
	cbMenu      = "menu"
	cbHelp      = "help"
	cbStudy     = "study"
	cbChecklist = "checklist"
	cbStats     = "stats"
	cbList      = "list"
	cbSettings  = "settings"
	cbExtract   = "extract"
	cbImport    = "import"

	groupReview    = "rv"
	groupStudy     = "st"
	groupChecklist = "ck"
	groupSettings  = "set"
	groupAccount   = "acct"
)

const (
	// maxMessageLen stays below Telegram's 4096 character limit
	maxMessageLen     = 4000
	checklistPageSize = 10
	maxListedDefLen   = 120
)

const (
	msgRetry      = "❌ Something went wrong. Please try again later."
	msgNeedStart  = "Send /start to create your vocabulary first."
	msgNoSession  = "This session has ended. Send /study to start a new one."
	msgNoReview   = "Nothing to review. Send /extract and upload a document."
	msgAdminsOnly = "This command is only available for administrators."
)

const helpText = `📖 GRE vocabulary bot

Words
/add word - definition - add a word
/list [newest|oldest|alphabetical] - show your words
/search term - find words
/delete N - delete word N of the last list
/live - toggle a list that updates as you add words
/stats - your progress

Files
/extract - send a .txt, .html, .docx or .pdf and pick the definitions to keep
/import - send a .json, .yaml, .xlsx or .csv word list
/export [xlsx|json|yaml] - download your words

Study
/study - one word at a time on a timer
/checklist - tick words off a list
/settings - session size, timer and modes
/reset - forget which words you studied

Account
/reminder on|off|HOUR - daily study reminder (hour in UTC)
/logout - sign out, keeping your words
/delete_account - delete your account and all your words`

// callback is parsed inline button data of the form group[:action[:arg]]
type callback struct {
	Group  string
	Action string
	Arg    int
	HasArg bool
}

func parseCallback(data string) (callback, error) {
	parts := strings.SplitN(data, ":", 3)
	cb := callback{Group: parts[0]}
	if cb.Group == "" {
		return callback{}, fmt.Errorf("empty callback data")
	}
	if len(parts) > 1 {
		cb.Action = parts[1]
	}
	if len(parts) > 2 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return callback{}, fmt.Errorf("invalid callback argument %q: %w", parts[2], err)
		}
		cb.Arg = n
		cb.HasArg = true
	}
	return cb, nil
}

func callbackData(group, action string, arg ...int) string {
	if len(arg) == 0 {
		return group + ":" + action
	}
	return fmt.Sprintf("%s:%s:%d", group, action, arg[0])
}

var wordSeparators = []string{" - ", " – ", " — ", ":"}

// parseWordDefinition splits "word - definition"
func parseWordDefinition(s string) (models.WordDefinition, error) {
	s = strings.TrimSpace(s)
	for _, sep := range wordSeparators {
		word, definition, ok := strings.Cut(s, sep)
		if !ok {
			continue
		}
		word = strings.TrimSpace(word)
		definition = strings.TrimSpace(definition)
		if word == "" || definition == "" {
			break
		}
		return models.WordDefinition{Word: word, Definition: definition}, nil
	}
	return models.WordDefinition{}, fmt.Errorf("expected \"word - definition\", got %q", s)
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📖 Study", CallbackData: cbStudy}, {Text: "☑️ Checklist", CallbackData: cbChecklist}},
		{{Text: "📚 My words", CallbackData: cbList}, {Text: "📊 Statistics", CallbackData: cbStats}},
		{{Text: "📄 Extract from document", CallbackData: cbExtract}, {Text: "📥 Import", CallbackData: cbImport}},
		{{Text: "⚙️ Settings", CallbackData: cbSettings}, {Text: "❓ Help", CallbackData: cbHelp}},
	}
}

func welcomeText(name string, created bool) string {
	if name == "" {
		name = "there"
	}
	if created {
		return fmt.Sprintf("👋 Welcome, %s!\n\n"+
			"Build your GRE vocabulary here: add words by hand, import a list or "+
			"let me pull definitions out of your study documents. Then study them "+
			"one at a time on a timer or as a checklist.", name)
	}
	return fmt.Sprintf("👋 Welcome back, %s! Choose what to do next.", name)
}

func pluralWords(n int) string {
	if n == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", n)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// renderWordList numbers entries from 1 and cuts the text before the
// message size limit
func renderWordList(title string, entries []models.VocabularyEntry) string {
	if len(entries) == 0 {
		return title + "\n\nNo words yet. Add one with /add word - definition"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d)\n", title, len(entries))
	for i, e := range entries {
		line := fmt.Sprintf("\n%d. %s: %s", i+1, e.Word, truncate(e.Definition, maxListedDefLen))
		if sb.Len()+len(line) > maxMessageLen-40 {
			fmt.Fprintf(&sb, "\n\n…and %d more", len(entries)-i)
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func renderStats(s *models.Statistics, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n\n")
	fmt.Fprintf(&sb, "Total words: %d\n", s.TotalWords)
	fmt.Fprintf(&sb, "Added today: %d\n", s.WordsAddedToday)
	fmt.Fprintf(&sb, "Studied: %d\n", s.StudiedWords)
	fmt.Fprintf(&sb, "Not studied yet: %d\n", max(s.TotalWords-s.StudiedWords, 0))
	if s.LastAddition != nil {
		fmt.Fprintf(&sb, "Last added: %s", s.LastAddition.In(loc).Format("2006-01-02 15:04"))
	} else {
		sb.WriteString("Last added: never")
	}
	return sb.String()
}

func reminderText(unstudied int) string {
	return fmt.Sprintf("⏰ You have %s you haven't studied yet. A few minutes now keeps them fresh!", pluralWords(unstudied))
}

func emptyPoolText(err *study.EmptyPoolError) string {
	if err.Unique && err.PoolSize > 0 {
		return fmt.Sprintf("✅ You have studied all %s. Send /reset to start over or turn off unique words in /settings.",
			pluralWords(err.PoolSize))
	}
	return "You have no words to study yet. Add some with /add, /import or /extract."
}

func renderReview(r *extract.Review, showLow bool) (string, tgbotapi.InlineKeyboardMarkup) {
	visible := r.Visible(showLow)
	selected := len(r.Selected())

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 Found %d candidate definitions, %d selected.\n", len(r.Candidates), selected)
	if hidden := len(r.Candidates) - len(visible); hidden > 0 {
		fmt.Fprintf(&sb, "%d low-confidence candidates are hidden.\n", hidden)
	}
	sb.WriteString("Tap a number to select or deselect it.\n")

	var rows [][]MenuButton
	var row []MenuButton
	for _, i := range visible {
		c := r.Candidates[i]
		mark := "▫️"
		if c.Selected {
			mark = "✅"
		}
		line := fmt.Sprintf("\n%s %d. %s (%d%%): %s", mark, i+1, c.Word, int(c.Confidence*100+0.5), truncate(c.Definition, maxListedDefLen))
		if sb.Len()+len(line) < maxMessageLen {
			sb.WriteString(line)
		}

		row = append(row, MenuButton{Text: fmt.Sprintf("%s %d", mark, i+1), CallbackData: callbackData(groupReview, "t", i)})
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	lowLabel := "Show low confidence"
	if showLow {
		lowLabel = "Hide low confidence"
	}
	rows = append(rows,
		[]MenuButton{
			{Text: "Select all", CallbackData: callbackData(groupReview, "all")},
			{Text: "Deselect all", CallbackData: callbackData(groupReview, "none")},
		},
		[]MenuButton{{Text: lowLabel, CallbackData: callbackData(groupReview, "low")}},
		[]MenuButton{
			{Text: fmt.Sprintf("💾 Save %d", selected), CallbackData: callbackData(groupReview, "save")},
			{Text: "✖️ Cancel", CallbackData: callbackData(groupReview, "cancel")},
		},
	)
	return sb.String(), createKeyboard(rows)
}

func renderSession(s *study.Session) (string, tgbotapi.InlineKeyboardMarkup) {
	if s.State == study.StateComplete {
		return fmt.Sprintf("🎉 Session complete! You studied %s in %s.",
			pluralWords(s.WordsStudied), formatDuration(s.TotalTime)), createKeyboard(nil)
	}

	entry, ok := s.Current()
	if !ok {
		return "Session stopped.", createKeyboard(nil)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 Word %d of %d\n\n", s.CurrentIndex+1, len(s.Words))
	sb.WriteString(strings.ToUpper(entry.Word))
	sb.WriteString("\n\n")
	if s.ShowDefinition {
		sb.WriteString(entry.Definition)
	} else {
		sb.WriteString("(definition hidden)")
	}
	fmt.Fprintf(&sb, "\n\n⏱ %ds", s.Remaining)
	if s.IsPaused {
		sb.WriteString(" ⏸ paused")
	}

	defLabel := "🙈 Hide definition"
	if !s.ShowDefinition {
		defLabel = "👁 Show definition"
	}
	pauseLabel := "⏸ Pause"
	if s.IsPaused {
		pauseLabel = "▶️ Resume"
	}
	return sb.String(), createKeyboard([][]MenuButton{
		{
			{Text: defLabel, CallbackData: callbackData(groupStudy, "def")},
			{Text: "⏭ Next", CallbackData: callbackData(groupStudy, "next")},
		},
		{
			{Text: pauseLabel, CallbackData: callbackData(groupStudy, "pause")},
			{Text: "⏹ Stop", CallbackData: callbackData(groupStudy, "stop")},
		},
	})
}

func checklistPages(c *study.Checklist) int {
	return max((len(c.Items)+checklistPageSize-1)/checklistPageSize, 1)
}

func renderChecklist(c *study.Checklist, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	pages := checklistPages(c)
	page = min(max(page, 0), pages-1)
	start := page * checklistPageSize
	end := min(start+checklistPageSize, len(c.Items))

	var sb strings.Builder
	fmt.Fprintf(&sb, "☑️ Checklist: %d of %d read", c.ReadCount(), len(c.Items))
	if pages > 1 {
		fmt.Fprintf(&sb, " (page %d/%d)", page+1, pages)
	}
	sb.WriteString("\n")

	var rows [][]MenuButton
	for i := start; i < end; i++ {
		item := c.Items[i]
		mark := "⬜"
		if item.Read {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %d. %s: %s", mark, i+1, item.Entry.Word, truncate(item.Entry.Definition, maxListedDefLen))
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("%s %s", mark, truncate(item.Entry.Word, 40)),
			CallbackData: callbackData(groupChecklist, "t", i),
		}})
	}
	if c.Complete() {
		sb.WriteString("\n\n🎉 All words read!")
	}

	var nav []MenuButton
	if page > 0 {
		nav = append(nav, MenuButton{Text: "« Prev", CallbackData: callbackData(groupChecklist, "p", page-1)})
	}
	if page < pages-1 {
		nav = append(nav, MenuButton{Text: "Next »", CallbackData: callbackData(groupChecklist, "p", page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []MenuButton{{Text: "⏹ Finish", CallbackData: callbackData(groupChecklist, "stop")}})

	return sb.String(), createKeyboard(rows)
}

// nextOption returns the option after cur, wrapping around. Values that
// are not options restart the cycle.
func nextOption(options []int, cur int) int {
	for i, o := range options {
		if o == cur {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func renderSettings(s models.StudySettings) (string, tgbotapi.InlineKeyboardMarkup) {
	text := "⚙️ Study settings\n\nTap a button to change a value."
	return text, createKeyboard([][]MenuButton{
		{{
			Text:         fmt.Sprintf("Words per session: %d", s.WordsPerSession),
			CallbackData: callbackData(groupSettings, "words", nextOption(study.WordsPerSessionOptions, s.WordsPerSession)),
		}},
		{{
			Text:         fmt.Sprintf("Seconds per word: %d", s.TimePerWord),
			CallbackData: callbackData(groupSettings, "time", nextOption(study.TimePerWordOptions, s.TimePerWord)),
		}},
		{{Text: "Auto-advance: " + onOff(s.AutoAdvance), CallbackData: callbackData(groupSettings, "auto")}},
		{{Text: "Shuffle words: " + onOff(s.ShuffleWords), CallbackData: callbackData(groupSettings, "shuffle")}},
		{{Text: "Unique words: " + onOff(s.UniqueWordsMode), CallbackData: callbackData(groupSettings, "unique")}},
		{{Text: "« Back to menu", CallbackData: cbMenu}},
	})
}

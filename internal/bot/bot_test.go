package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/config"
	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/study"
	"github.com/example/grevocab/pkg/models"
)

const testUser int64 = 4242

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	nextID  int
	fileURL string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := c.(tgbotapi.CallbackConfig); !ok {
		f.sent = append(f.sent, c)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

// texts returns the text of every message, edit and document caption sent
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.sent {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		case tgbotapi.DocumentConfig:
			out = append(out, v.Caption)
		}
	}
	return out
}

func (f *fakeAPI) last() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// edits counts the message edits sent so far
func (f *fakeAPI) edits() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.sent {
		if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			n++
		}
	}
	return n
}

func (f *fakeAPI) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()

	db, err := database.Connect(context.Background(), database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := &fakeAPI{}
	cfg := &config.Config{}
	cfg.Telegram.AdminUserIDs = []int64{1}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	b := newBot(api, cfg, db, clock, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = b.Stop(ctx)
	})
	return b, api
}

func command(userID int64, text string) *tgbotapi.Message {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Ada", UserName: "ada"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}
}

func press(userID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}
}

func run(t *testing.T, b *Bot, userID int64, text string) {
	t.Helper()
	require.NoError(t, b.HandleMessage(context.Background(), command(userID, text)))
}

func click(t *testing.T, b *Bot, userID int64, data string) {
	t.Helper()
	require.NoError(t, b.HandleCallback(context.Background(), press(userID, 1, data)))
}

func signUp(t *testing.T, b *Bot, words ...string) {
	t.Helper()
	run(t, b, testUser, "/start")
	for _, w := range words {
		run(t, b, testUser, "/add "+w)
	}
}

func TestCommandsRequireStart(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)

	run(t, b, testUser, "/list")
	assert.Equal(t, msgNeedStart, api.last())

	click(t, b, testUser, cbStudy)
	assert.Equal(t, msgNeedStart, api.last())
}

func TestStart(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)

	run(t, b, testUser, "/start")
	assert.Contains(t, api.last(), "Welcome, Ada!")

	run(t, b, testUser, "/start")
	assert.Contains(t, api.last(), "Welcome back, Ada!")

	user, err := b.userRepo.Get(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, user.ReminderEnabled)
}

func TestAddListDelete(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/add abate - to lessen in intensity")
	assert.Equal(t, "✅ Added abate: to lessen in intensity", api.last())

	run(t, b, testUser, "/add Abate - something else")
	assert.Contains(t, api.last(), "already in your vocabulary")

	run(t, b, testUser, "/add nonsense")
	assert.Contains(t, api.last(), "Usage: /add")

	run(t, b, testUser, "/add venal: open to bribery")
	run(t, b, testUser, "/list alphabetical")
	assert.Contains(t, api.last(), "1. abate: to lessen in intensity\n2. venal: open to bribery")

	run(t, b, testUser, "/delete 3")
	assert.Contains(t, api.last(), "There is no word 3")

	run(t, b, testUser, "/delete 1")
	assert.Equal(t, "🗑 Deleted abate.", api.last())

	run(t, b, testUser, "/delete 1")
	assert.Contains(t, api.last(), "already deleted")

	run(t, b, testUser, "/search BRIB")
	assert.Contains(t, api.last(), "1. venal")

	run(t, b, testUser, "/search zzz")
	assert.Contains(t, api.last(), "No words match")
}

func TestExtractReviewAndSave(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/extract there is nothing here")
	assert.Contains(t, api.last(), "No definitions found")

	run(t, b, testUser, "/extract Abate: To reduce in intensity or amount drastically")
	assert.Contains(t, api.last(), "Abate")

	click(t, b, testUser, "rv:none")
	click(t, b, testUser, "rv:save")
	assert.Equal(t, "Select at least one word first.", api.last())

	click(t, b, testUser, "rv:t:0")
	click(t, b, testUser, "rv:save")
	assert.Equal(t, "💾 Saved 1 word to your vocabulary.", api.last())

	entries, err := b.wordRepo.ListByOwner(context.Background(), testUser, database.SortNewest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Abate", entries[0].Word)

	click(t, b, testUser, "rv:save")
	assert.Equal(t, msgNoReview, api.last())
}

func TestExtractAwaitsPastedText(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/extract")
	assert.Contains(t, api.last(), ".docx")

	msg := command(testUser, "Laconic - using very few words when speaking")
	msg.Entities = nil
	require.NoError(t, b.HandleMessage(context.Background(), msg))
	assert.Contains(t, api.last(), "Laconic")
}

func TestStudySession(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)
	ctx := context.Background()

	run(t, b, testUser, "/study")
	assert.Contains(t, api.last(), "no words to study")

	run(t, b, testUser, "/add abate - to lessen")
	run(t, b, testUser, "/add venal - open to bribery")

	run(t, b, testUser, "/study")
	assert.Contains(t, api.last(), "Word 1 of 2")

	click(t, b, testUser, "st:def")
	assert.Contains(t, api.last(), "(definition hidden)")

	click(t, b, testUser, "st:next")
	assert.Contains(t, api.last(), "Word 2 of 2")

	studied, err := b.progressRepo.Studied(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, studied, 1)

	click(t, b, testUser, "st:next")
	assert.Contains(t, api.last(), "Session complete! You studied 2 words")

	click(t, b, testUser, "st:next")
	assert.Equal(t, msgNoSession, api.last())

	run(t, b, testUser, "/study")
	assert.Contains(t, api.last(), "You have studied all 2 words")

	run(t, b, testUser, "/reset")
	run(t, b, testUser, "/study")
	assert.Contains(t, api.last(), "Word 1 of 2")

	click(t, b, testUser, "st:stop")
	assert.Equal(t, "⏹ Session stopped after 0 words.", api.last())
}

// sessionCountdown returns the running countdown of the test chat
func sessionCountdown(t *testing.T, b *Bot) *study.Countdown {
	t.Helper()

	cs := b.chat(testUser)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.NotNil(t, cs.countdown)
	return cs.countdown
}

// tickSession advances the clock one second and waits until the countdown
// goroutine has applied the tick
func tickSession(t *testing.T, clock *clockwork.FakeClock, cd *study.Countdown) {
	t.Helper()

	position := func() [2]int {
		var p [2]int
		_ = cd.Do(func(s *study.Session) error {
			p = [2]int{s.Remaining, s.CurrentIndex}
			return nil
		})
		return p
	}

	before := position()
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return position() != before }, time.Second, time.Millisecond)
}

func TestStudySession_AutoAdvanceOnTimer(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen", "venal - open to bribery")
	ctx := context.Background()
	clock := b.clock.(*clockwork.FakeClock)

	require.NoError(t, b.settingsRepo.Save(ctx, testUser, models.StudySettings{
		WordsPerSession: 2,
		TimePerWord:     5,
		AutoAdvance:     true,
		UniqueWordsMode: true,
	}))

	run(t, b, testUser, "/study")
	assert.Contains(t, api.last(), "Word 1 of 2")
	cd := sessionCountdown(t, b)

	for i := 0; i < 5; i++ {
		tickSession(t, clock, cd)
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(api.last(), "Word 2 of 2")
	}, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		tickSession(t, clock, cd)
	}
	assert.Eventually(t, func() bool {
		return api.last() == "🎉 Session complete! You studied 2 words in 10s."
	}, time.Second, time.Millisecond)

	assert.Eventually(t, func() bool {
		studied, err := b.progressRepo.Studied(ctx, testUser)
		return err == nil && len(studied) == 2
	}, time.Second, time.Millisecond)

	select {
	case <-cd.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown still running after completion")
	}

	assert.Eventually(t, func() bool {
		cs := b.chat(testUser)
		cs.mu.Lock()
		defer cs.mu.Unlock()
		return cs.countdown == nil
	}, time.Second, time.Millisecond)
}

func TestStudySession_PausedCountdownIsQuiet(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen", "venal - open to bribery")
	clock := b.clock.(*clockwork.FakeClock)

	run(t, b, testUser, "/study")
	cd := sessionCountdown(t, b)

	click(t, b, testUser, "st:pause")
	assert.Contains(t, api.last(), "⏱ 30s ⏸ paused")
	edits := api.edits()

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, edits, api.edits())

	click(t, b, testUser, "st:pause")
	assert.NotContains(t, api.last(), "paused")

	for i := 0; i < 5; i++ {
		tickSession(t, clock, cd)
	}
	assert.Eventually(t, func() bool {
		for _, text := range api.texts() {
			if strings.Contains(text, "⏱ 25s") {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestChecklist(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen", "venal - open to bribery")
	ctx := context.Background()

	run(t, b, testUser, "/checklist")
	assert.Contains(t, api.last(), "0 of 2 read")

	click(t, b, testUser, "ck:t:0")
	assert.Contains(t, api.last(), "1 of 2 read")

	click(t, b, testUser, "ck:t:9")
	assert.Contains(t, api.last(), "no longer on the checklist")

	click(t, b, testUser, "ck:t:1")
	assert.Contains(t, api.last(), "All words read!")

	studied, err := b.progressRepo.Studied(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, studied, 2)

	click(t, b, testUser, "ck:stop")
	assert.Equal(t, "⏹ Checklist finished: 2 of 2 read.", api.last())
}

func TestSettingsCallbacks(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)
	ctx := context.Background()

	run(t, b, testUser, "/settings")
	assert.Contains(t, api.last(), "Study settings")

	click(t, b, testUser, "set:words:50")
	click(t, b, testUser, "set:auto")
	click(t, b, testUser, "set:words:500")
	assert.Equal(t, "⚠️ That value is not allowed.", api.last())

	s, err := b.settingsRepo.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 50, s.WordsPerSession)
	assert.False(t, s.AutoAdvance)
}

func TestReminderAndLogout(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen")
	ctx := context.Background()

	run(t, b, testUser, "/reminder 7")
	assert.Contains(t, api.last(), "07:00")

	run(t, b, testUser, "/reminder 25")
	assert.Contains(t, api.last(), "Usage: /reminder")

	run(t, b, testUser, "/reminder off")
	user, err := b.userRepo.Get(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, user.ReminderEnabled)
	assert.Equal(t, 7, user.ReminderHour)

	run(t, b, testUser, "/logout")
	assert.Contains(t, api.last(), "signed out")

	run(t, b, testUser, "/stats")
	assert.Equal(t, msgNeedStart, api.last())

	entries, err := b.wordRepo.ListByOwner(ctx, testUser, database.SortNewest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	run(t, b, testUser, "/start")
	assert.Contains(t, api.last(), "Welcome back, Ada!")
	run(t, b, testUser, "/list")
	assert.Contains(t, api.last(), "1. abate")
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen")
	ctx := context.Background()

	run(t, b, testUser, "/delete_account")
	assert.Contains(t, api.last(), "cannot be undone")

	click(t, b, testUser, "acct:cancel")
	assert.Equal(t, "Account deletion cancelled.", api.last())
	_, err := b.userRepo.Get(ctx, testUser)
	require.NoError(t, err)

	click(t, b, testUser, "acct:delete")
	assert.Contains(t, api.last(), "were deleted")

	_, err = b.userRepo.Get(ctx, testUser)
	assert.ErrorIs(t, err, database.ErrNotFound)

	run(t, b, testUser, "/stats")
	assert.Equal(t, msgNeedStart, api.last())
}

func TestStats(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen", "venal - open to bribery")

	run(t, b, testUser, "/stats")

	text := api.last()
	assert.Contains(t, text, "Total words: 2")
	assert.Contains(t, text, "Added today: 2")
	assert.Contains(t, text, "Last added: 2024-03-01 09:00")
}

func TestImportDocument(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b, "abate - to lessen")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"word": "Venal", "definition": "open to bribery"},
			{"word": "ABATE", "definition": "duplicate"},
			{"word": "", "definition": "missing word"}
		]`))
	}))
	t.Cleanup(srv.Close)
	api.fileURL = srv.URL

	run(t, b, testUser, "/import")
	docs := api.documents()
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Caption, ".json")

	msg := command(testUser, "")
	msg.Entities = nil
	msg.Document = &tgbotapi.Document{FileID: "f1", FileName: "words.json", FileSize: 120}
	require.NoError(t, b.HandleMessage(context.Background(), msg))

	text := api.last()
	assert.Contains(t, text, "Imported 1 word")
	assert.Contains(t, text, "1 valid, 1 duplicates, 1 invalid out of 3 entries")
	assert.Contains(t, text, "Row 3")
}

func TestExtractDocumentUnsupported(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("binary"))
	}))
	t.Cleanup(srv.Close)
	api.fileURL = srv.URL

	msg := command(testUser, "")
	msg.Entities = nil
	msg.Document = &tgbotapi.Document{FileID: "f2", FileName: "slides.pptx", FileSize: 6}
	require.NoError(t, b.HandleMessage(context.Background(), msg))

	assert.Contains(t, api.last(), "I can't read \"slides.pptx\"")
}

func TestExport(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/export")
	assert.Equal(t, "You have no words to export yet.", api.last())

	run(t, b, testUser, "/add abate - to lessen")
	run(t, b, testUser, "/export json")

	docs := api.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "📤 1 word exported.", docs[0].Caption)

	file, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "vocabulary.json", file.Name)
	assert.Contains(t, string(file.Bytes), `"word": "abate"`)

	run(t, b, testUser, "/export pdf")
	assert.Equal(t, "Usage: /export [xlsx|json|yaml]", api.last())
}

func TestSendReminder(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)

	require.NoError(t, b.SendReminder(context.Background(), testUser, 3))
	assert.Contains(t, api.last(), "3 words you haven't studied")
}

func TestAdminStats(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/admin_stats")
	assert.Equal(t, msgAdminsOnly, api.last())

	run(t, b, 1, "/start")
	run(t, b, 1, "/admin_stats")
	assert.Contains(t, api.last(), "Users: 2")
}

func TestLiveList(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t)
	signUp(t, b)

	run(t, b, testUser, "/live")
	run(t, b, testUser, "/add abate - to lessen")

	assert.Eventually(t, func() bool {
		for _, text := range api.texts() {
			if strings.Contains(text, "(live) (1)") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	run(t, b, testUser, "/live")
	assert.Equal(t, "Live list stopped.", api.last())
}

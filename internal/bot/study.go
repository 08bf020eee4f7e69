package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/study"
	"github.com/example/grevocab/pkg/models"
)

// countdownRefresh is how often, in seconds, a running countdown is
// redrawn between word changes
const countdownRefresh = 5

// loadPool gathers what a new session or checklist is built from
func (b *Bot) loadPool(ctx context.Context, userID int64) ([]models.VocabularyEntry, models.StudySettings, *study.StudiedSet, error) {
	settings, err := b.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, settings, nil, err
	}
	pool, err := b.wordRepo.ListByOwner(ctx, userID, database.SortNewest)
	if err != nil {
		return nil, settings, nil, err
	}
	studied, err := study.LoadStudied(ctx, b.progressRepo, userID)
	if err != nil {
		return nil, settings, nil, err
	}
	return pool, settings, studied, nil
}

// replyBuildError explains why a session could not be built
func (b *Bot) replyBuildError(chatID int64, err error) error {
	var empty *study.EmptyPoolError
	if errors.As(err, &empty) {
		return b.sendText(chatID, emptyPoolText(empty))
	}
	if errors.Is(err, study.ErrInvalidSettings) {
		return b.sendText(chatID, "Your study settings are out of range. Fix them in /settings.")
	}
	return b.replyError(chatID, "build session", err)
}

func (b *Bot) startStudy(ctx context.Context, chatID, userID int64) error {
	pool, settings, studied, err := b.loadPool(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "load words", err)
	}

	session, err := study.BuildSession(pool, settings, studied, study.WithClock(b.clock))
	if err != nil {
		return b.replyBuildError(chatID, err)
	}

	text, markup := renderSession(session)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	msgID, err := b.send(msg)
	if err != nil {
		return err
	}

	var countdown *study.Countdown
	countdown = study.NewCountdown(session, b.clock, func(res study.TickResult) {
		b.onStudyTick(chatID, userID, msgID, countdown, res)
	})

	cs := b.chat(chatID)
	cs.mu.Lock()
	previous := cs.detachSession()
	cs.countdown = countdown
	cs.sessionMsgID = msgID
	cs.mu.Unlock()
	stopCountdown(previous)

	countdown.Start(b.baseCtx)
	b.logger.Info("study session started",
		zap.Int64("user_id", userID),
		zap.Int("words", len(session.Words)),
		zap.Bool("unique", session.UniqueWordsMode))
	return nil
}

// onStudyTick runs on the countdown goroutine after every unpaused tick.
// The countdown is redrawn on a word change and when the remaining time
// reaches a multiple of countdownRefresh.
func (b *Bot) onStudyTick(chatID, userID int64, msgID int, countdown *study.Countdown, res study.TickResult) {
	if res.Advanced {
		b.recordStudied(chatID, userID, countdown, res.EntryID)
	}
	if !res.Advanced && res.Remaining%countdownRefresh != 0 {
		return
	}

	err := b.redrawSession(chatID, msgID, countdown)
	if err != nil && !errors.Is(err, study.ErrSessionInactive) {
		b.logger.Warn("failed to redraw session", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if res.Complete {
		// the countdown goroutine exits by itself after completion
		b.finishSession(chatID, countdown)
	}
}

// recordStudied persists an advanced word in unique-words mode
func (b *Bot) recordStudied(chatID, userID int64, countdown *study.Countdown, entryID string) {
	var unique bool
	_ = countdown.Do(func(s *study.Session) error {
		unique = s.UniqueWordsMode
		return nil
	})
	if !unique || entryID == "" {
		return
	}
	if err := b.progressRepo.MarkStudied(b.baseCtx, userID, entryID); err != nil {
		b.logger.Error("failed to record studied word",
			zap.Int64("chat_id", chatID),
			zap.String("entry_id", entryID),
			zap.Error(err))
	}
}

func (b *Bot) redrawSession(chatID int64, msgID int, countdown *study.Countdown) error {
	var text string
	var markup tgbotapi.InlineKeyboardMarkup
	err := countdown.Do(func(s *study.Session) error {
		text, markup = renderSession(s)
		return nil
	})
	if err != nil {
		return err
	}
	return b.edit(chatID, msgID, text, markup)
}

// finishSession forgets countdown if it is still the chat's session. It
// does not stop the countdown, so it is safe on the countdown goroutine.
func (b *Bot) finishSession(chatID int64, countdown *study.Countdown) {
	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.countdown == countdown {
		cs.detachSession()
	}
}

func (b *Bot) handleStudyCallback(_ context.Context, chatID, userID int64, cb callback) error {
	cs := b.chat(chatID)
	cs.mu.Lock()
	countdown, msgID := cs.countdown, cs.sessionMsgID
	cs.mu.Unlock()

	if countdown == nil {
		return b.sendText(chatID, msgNoSession)
	}

	if cb.Action == "stop" {
		var summary string
		_ = countdown.Do(func(s *study.Session) error {
			summary = fmt.Sprintf("⏹ Session stopped after %s.", pluralWords(s.WordsStudied))
			s.Reset()
			return nil
		})
		b.finishSession(chatID, countdown)
		countdown.Stop()
		return b.edit(chatID, msgID, summary, createKeyboard(nil))
	}

	var advancedID string
	var complete bool
	err := countdown.Do(func(s *study.Session) error {
		switch cb.Action {
		case "def":
			s.ToggleDefinition()
		case "pause":
			_, err := s.TogglePause()
			return err
		case "next":
			id, err := s.Advance()
			if err != nil {
				return err
			}
			advancedID = id
			complete = s.State == study.StateComplete
		default:
			return fmt.Errorf("unknown study action %q", cb.Action)
		}
		return nil
	})
	if errors.Is(err, study.ErrSessionInactive) {
		return b.sendText(chatID, msgNoSession)
	}
	if err != nil {
		return err
	}

	if advancedID != "" {
		b.recordStudied(chatID, userID, countdown, advancedID)
	}
	if err := b.redrawSession(chatID, msgID, countdown); err != nil {
		return err
	}
	if complete {
		b.finishSession(chatID, countdown)
		countdown.Stop()
	}
	return nil
}

func (b *Bot) startChecklist(ctx context.Context, chatID, userID int64) error {
	pool, settings, studied, err := b.loadPool(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "load words", err)
	}

	checklist, err := study.BuildChecklist(pool, settings, studied)
	if err != nil {
		return b.replyBuildError(chatID, err)
	}

	text, markup := renderChecklist(checklist, 0)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	msgID, err := b.send(msg)
	if err != nil {
		return err
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	cs.checklist = checklist
	cs.checklistMsgID = msgID
	cs.checklistPage = 0
	cs.mu.Unlock()
	return nil
}

func (b *Bot) handleChecklistCallback(ctx context.Context, chatID, userID int64, cb callback) error {
	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	checklist := cs.checklist
	if checklist == nil {
		return b.sendText(chatID, "This checklist has ended. Send /checklist to start a new one.")
	}

	switch cb.Action {
	case "t":
		read, err := checklist.Toggle(cb.Arg)
		if err != nil {
			return b.sendText(chatID, "⚠️ That word is no longer on the checklist.")
		}
		if read && checklist.UniqueWordsMode {
			entryID := checklist.Items[cb.Arg].Entry.ID
			if err := b.progressRepo.MarkStudied(ctx, userID, entryID); err != nil {
				return b.replyError(chatID, "record studied word", err)
			}
		}
	case "p":
		cs.checklistPage = cb.Arg
	case "stop":
		summary := fmt.Sprintf("⏹ Checklist finished: %d of %d read.", checklist.ReadCount(), len(checklist.Items))
		checklist.Reset()
		cs.checklist = nil
		return b.edit(chatID, cs.checklistMsgID, summary, createKeyboard(nil))
	default:
		return fmt.Errorf("unknown checklist action %q", cb.Action)
	}

	text, markup := renderChecklist(checklist, cs.checklistPage)
	return b.edit(chatID, cs.checklistMsgID, text, markup)
}

func (b *Bot) handleSettings(ctx context.Context, chatID, userID int64) error {
	settings, err := b.settingsRepo.Get(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "load settings", err)
	}

	text, markup := renderSettings(settings)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	return b.sendMessage(msg)
}

func (b *Bot) handleSettingsCallback(ctx context.Context, chatID, userID int64, msgID int, cb callback) error {
	settings, err := b.settingsRepo.Get(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "load settings", err)
	}

	switch cb.Action {
	case "words":
		settings.WordsPerSession = cb.Arg
	case "time":
		settings.TimePerWord = cb.Arg
	case "auto":
		settings.AutoAdvance = !settings.AutoAdvance
	case "shuffle":
		settings.ShuffleWords = !settings.ShuffleWords
	case "unique":
		settings.UniqueWordsMode = !settings.UniqueWordsMode
	default:
		return fmt.Errorf("unknown settings action %q", cb.Action)
	}

	if err := study.ValidateSettings(settings); err != nil {
		return b.sendText(chatID, "⚠️ That value is not allowed.")
	}
	if err := b.settingsRepo.Save(ctx, userID, settings); err != nil {
		return b.replyError(chatID, "save settings", err)
	}

	text, markup := renderSettings(settings)
	return b.edit(chatID, msgID, text, markup)
}

// Package bot is the Telegram front end of grevocab.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/config"
	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/extract"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api    telegramAPI
	cfg    *config.Config
	logger *zap.Logger
	clock  clockwork.Clock
	http   *http.Client

	wordRepo     *database.WordRepository
	userRepo     *database.UserRepository
	settingsRepo *database.SettingsRepository
	progressRepo *database.ProgressRepository
	statsRepo    *database.StatisticsRepository
	decoder      *extract.Decoder

	mu    sync.Mutex
	chats map[int64]*chatState

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewBot connects to the Telegram API and wires the repositories on db
func NewBot(cfg *config.Config, db *sqlx.DB, logger *zap.Logger) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	logger.Info("authorized on account", zap.String("username", api.Self.UserName))
	return newBot(api, cfg, db, clockwork.NewRealClock(), logger), nil
}

func newBot(api telegramAPI, cfg *config.Config, db *sqlx.DB, clock clockwork.Clock, logger *zap.Logger) *Bot {
	return &Bot{
		api:          api,
		cfg:          cfg,
		logger:       logger.Named("bot"),
		clock:        clock,
		http:         &http.Client{Timeout: 60 * time.Second},
		wordRepo:     database.NewWordRepository(db, database.NewFeed()).WithClock(clock),
		userRepo:     database.NewUserRepository(db),
		settingsRepo: database.NewSettingsRepository(db),
		progressRepo: database.NewProgressRepository(db),
		statsRepo:    database.NewStatisticsRepository(db),
		decoder:      extract.NewDecoder(cfg.Extract.MaxDocumentBytes),
		chats:        make(map[int64]*chatState),
		baseCtx:      context.Background(),
	}
}

// Users exposes the user repository to the reminder scheduler
func (b *Bot) Users() *database.UserRepository {
	return b.userRepo
}

// Statistics exposes the statistics repository to the reminder scheduler
func (b *Bot) Statistics() *database.StatisticsRepository {
	return b.statsRepo
}

// Start receives updates until ctx is cancelled or the update channel is
// closed. Every update is handled on its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	b.baseCtx = ctx

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.Telegram.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("receiving updates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// Stop stops polling, ends every running study session and live list and
// waits for in-flight updates until ctx expires.
func (b *Bot) Stop(ctx context.Context) error {
	b.api.StopReceivingUpdates()

	b.mu.Lock()
	chats := make([]*chatState, 0, len(b.chats))
	for _, cs := range b.chats {
		chats = append(chats, cs)
	}
	b.mu.Unlock()

	for _, cs := range chats {
		cs.mu.Lock()
		countdown := cs.closeAll()
		cs.mu.Unlock()
		stopCountdown(countdown)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("bot stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to finish pending updates: %w", ctx.Err())
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(_ context.Context, userID int64, unstudied int) error {
	msg := tgbotapi.NewMessage(userID, reminderText(unstudied))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Study now", CallbackData: cbStudy}, {Text: "☑️ Checklist", CallbackData: cbChecklist}},
	})
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	b.logger.Info("sent reminder", zap.Int64("user_id", userID), zap.Int("unstudied", unstudied))
	return nil
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	var err error
	switch {
	case update.Message != nil:
		err = b.HandleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	default:
		return
	}

	if err != nil {
		b.logger.Error("failed to handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// send delivers msg and returns the id of the posted message
func (b *Bot) send(msg tgbotapi.MessageConfig) (int, error) {
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

// edit replaces the text and keyboard of a posted message. Telegram
// rejects edits that change nothing; those are not errors.
func (b *Bot) edit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	cfg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Request(cfg); err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.Code == http.StatusBadRequest {
			b.logger.Debug("edit rejected", zap.Int64("chat_id", chatID), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// replyError logs err and tells the user to retry
func (b *Bot) replyError(chatID int64, action string, err error) error {
	b.logger.Error("request failed", zap.Int64("chat_id", chatID), zap.String("action", action), zap.Error(err))
	return b.sendText(chatID, msgRetry)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/pkg/models"
)

// HandleMessage handles commands, uploaded documents and plain text
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	if message.IsCommand() {
		return b.HandleCommand(ctx, message)
	}

	if !b.requireUser(ctx, message.Chat.ID, message.From.ID) {
		return nil
	}

	if message.Document != nil {
		return b.handleDocument(ctx, message)
	}

	cs := b.chat(message.Chat.ID)
	cs.mu.Lock()
	awaiting := cs.awaiting
	cs.mu.Unlock()

	if awaiting == uploadExtract && strings.TrimSpace(message.Text) != "" {
		return b.extractText(ctx, message.Chat.ID, message.From.ID, message.Text)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "I don't understand. Use /help to see what I can do.")
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	command := message.Command()
	if command == "start" {
		return b.handleStart(ctx, message)
	}
	if command == "help" {
		return b.handleHelp(message.Chat.ID)
	}
	if !b.requireUser(ctx, message.Chat.ID, message.From.ID) {
		return nil
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	var err error
	switch command {
	case "menu":
		err = b.showMainMenu(chatID)
	case "add":
		err = b.handleAdd(ctx, chatID, userID, args)
	case "list":
		err = b.handleList(ctx, chatID, userID, args)
	case "search":
		err = b.handleSearch(ctx, chatID, userID, args)
	case "delete":
		err = b.handleDelete(ctx, chatID, userID, args)
	case "live":
		err = b.handleLive(ctx, chatID, userID)
	case "stats":
		err = b.handleStats(ctx, chatID, userID)
	case "import":
		err = b.handleImportCommand(chatID)
	case "extract":
		err = b.handleExtractCommand(ctx, chatID, userID, args)
	case "export":
		err = b.handleExport(ctx, chatID, userID, args)
	case "study":
		err = b.startStudy(ctx, chatID, userID)
	case "checklist":
		err = b.startChecklist(ctx, chatID, userID)
	case "settings":
		err = b.handleSettings(ctx, chatID, userID)
	case "reset":
		err = b.handleReset(ctx, chatID, userID)
	case "reminder":
		err = b.handleReminder(ctx, chatID, userID, args)
	case "logout":
		err = b.handleLogout(ctx, chatID, userID)
	case "delete_account":
		err = b.handleDeleteAccount(chatID)
	case "admin_stats":
		err = b.handleAdminStats(ctx, chatID, userID)
	default:
		err = b.handleUnknownCommand(chatID)
	}
	return err
}

// requireUser reports whether the sender has an account and is signed in,
// and tells them to /start otherwise
func (b *Bot) requireUser(ctx context.Context, chatID, userID int64) bool {
	user, err := b.userRepo.Get(ctx, userID)
	if err == nil && user.SignedIn {
		return true
	}
	if err == nil || errors.Is(err, database.ErrNotFound) {
		if err := b.sendText(chatID, msgNeedStart); err != nil {
			b.logger.Warn("failed to send start hint", zap.Error(err))
		}
		return false
	}
	if err := b.replyError(chatID, "load user", err); err != nil {
		b.logger.Warn("failed to send error reply", zap.Error(err))
	}
	return false
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:              message.From.ID,
		Username:        message.From.UserName,
		FirstName:       message.From.FirstName,
		LastName:        message.From.LastName,
		ReminderEnabled: true,
		ReminderHour:    database.DefaultReminderHour,
	}

	created, err := b.userRepo.Ensure(ctx, user)
	if err != nil {
		return b.replyError(message.Chat.ID, "create user", err)
	}
	if created {
		b.logger.Info("new user", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText(message.From.FirstName, created))
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: cbMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) showMainMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Main menu. Choose an option:")
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleAdd(ctx context.Context, chatID, userID int64, args string) error {
	wd, err := parseWordDefinition(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /add word - definition\nExample: /add abate - to reduce in intensity")
	}

	existing, err := b.wordRepo.ExistingWords(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "add word", err)
	}
	if _, ok := existing[strings.ToLower(wd.Word)]; ok {
		return b.sendText(chatID, fmt.Sprintf("%q is already in your vocabulary.", wd.Word))
	}

	entry, err := b.wordRepo.Add(ctx, userID, wd)
	if err != nil {
		return b.replyError(chatID, "add word", err)
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Added %s: %s", entry.Word, entry.Definition))
}

func (b *Bot) handleList(ctx context.Context, chatID, userID int64, args string) error {
	order, err := database.ParseSortOrder(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /list [newest|oldest|alphabetical]")
	}

	entries, err := b.wordRepo.ListByOwner(ctx, userID, order)
	if err != nil {
		return b.replyError(chatID, "list words", err)
	}

	b.remember(chatID, entries)
	return b.sendText(chatID, renderWordList("📚 Your words", entries))
}

func (b *Bot) handleSearch(ctx context.Context, chatID, userID int64, term string) error {
	if term == "" {
		return b.sendText(chatID, "Usage: /search term")
	}

	entries, err := b.wordRepo.Search(ctx, userID, term)
	if err != nil {
		return b.replyError(chatID, "search words", err)
	}
	if len(entries) == 0 {
		return b.sendText(chatID, fmt.Sprintf("No words match %q.", term))
	}

	b.remember(chatID, entries)
	return b.sendText(chatID, renderWordList(fmt.Sprintf("🔎 Words matching %q", term), entries))
}

// remember keeps the numbering of the last list for /delete N
func (b *Bot) remember(chatID int64, entries []models.VocabularyEntry) {
	cs := b.chat(chatID)
	cs.mu.Lock()
	cs.listing = entries
	cs.mu.Unlock()
}

func (b *Bot) handleDelete(ctx context.Context, chatID, userID int64, args string) error {
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 {
		return b.sendText(chatID, "Usage: /delete N, where N is the number shown by /list or /search")
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	var entry models.VocabularyEntry
	ok := n <= len(cs.listing)
	if ok {
		entry = cs.listing[n-1]
	}
	cs.mu.Unlock()

	if !ok {
		return b.sendText(chatID, fmt.Sprintf("There is no word %d in your last list. Send /list first.", n))
	}

	err = b.wordRepo.Delete(ctx, userID, entry.ID)
	if errors.Is(err, database.ErrNotFound) {
		return b.sendText(chatID, fmt.Sprintf("%q was already deleted.", entry.Word))
	}
	if err != nil {
		return b.replyError(chatID, "delete word", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted %s.", entry.Word))
}

// handleLive toggles a message that is rewritten whenever the word list
// changes
func (b *Bot) handleLive(ctx context.Context, chatID, userID int64) error {
	cs := b.chat(chatID)
	cs.mu.Lock()
	if cs.liveCancel != nil {
		cs.stopLive()
		cs.mu.Unlock()
		return b.sendText(chatID, "Live list stopped.")
	}
	cs.mu.Unlock()

	updates, cancel, err := b.wordRepo.Subscribe(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "subscribe", err)
	}

	msgID, err := b.send(tgbotapi.NewMessage(chatID, "📡 Live word list. Send /live again to stop."))
	if err != nil {
		cancel()
		return err
	}

	cs.mu.Lock()
	cs.stopLive()
	cs.liveCancel = cancel
	cs.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runLive(chatID, msgID, updates, cancel)
	}()
	return nil
}

func (b *Bot) runLive(chatID int64, msgID int, updates <-chan []models.VocabularyEntry, cancel func()) {
	defer cancel()
	for {
		select {
		case <-b.baseCtx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			text := renderWordList("📡 Your words (live)", snapshot)
			if err := b.edit(chatID, msgID, text, createKeyboard(nil)); err != nil {
				b.logger.Warn("failed to update live list", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := b.statsRepo.ForUser(ctx, userID, b.clock.Now().In(b.cfg.Location()))
	if err != nil {
		return b.replyError(chatID, "load statistics", err)
	}

	msg := tgbotapi.NewMessage(chatID, renderStats(stats, b.cfg.Location()))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Study", CallbackData: cbStudy}},
		{{Text: "« Back to menu", CallbackData: cbMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleReset(ctx context.Context, chatID, userID int64) error {
	if err := b.progressRepo.ResetStudied(ctx, userID); err != nil {
		return b.replyError(chatID, "reset progress", err)
	}
	return b.sendText(chatID, "🔄 Progress cleared. Every word is available for study again.")
}

func (b *Bot) handleReminder(ctx context.Context, chatID, userID int64, args string) error {
	user, err := b.userRepo.Get(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "load user", err)
	}

	enabled, hour := user.ReminderEnabled, user.ReminderHour
	switch strings.ToLower(args) {
	case "":
		return b.sendText(chatID, fmt.Sprintf("Reminders are %s at %02d:00 %s.\nUsage: /reminder on|off|HOUR",
			onOff(enabled), hour, b.cfg.Location()))
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		h, err := strconv.Atoi(args)
		if err != nil || h < 0 || h > 23 {
			return b.sendText(chatID, "Usage: /reminder on|off|HOUR, where HOUR is 0 to 23")
		}
		enabled, hour = true, h
	}

	if err := b.userRepo.UpdateReminder(ctx, userID, enabled, hour); err != nil {
		return b.replyError(chatID, "update reminder", err)
	}
	if !enabled {
		return b.sendText(chatID, "🔕 Reminders turned off.")
	}
	return b.sendText(chatID, fmt.Sprintf("🔔 I'll remind you at %02d:00 %s.", hour, b.cfg.Location()))
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64) error {
	b.forgetChat(chatID)

	if err := b.userRepo.SignOut(ctx, userID); err != nil {
		return b.replyError(chatID, "sign out", err)
	}

	b.logger.Info("user signed out", zap.Int64("user_id", userID))
	return b.sendText(chatID, "👋 You are signed out. Your words are kept; send /start to sign in again.")
}

// handleDeleteAccount asks for confirmation before any data is removed
func (b *Bot) handleDeleteAccount(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "⚠️ Delete your account together with all your words, settings and progress? This cannot be undone.")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{
			{Text: "🗑 Delete everything", CallbackData: callbackData(groupAccount, "delete")},
			{Text: "Cancel", CallbackData: callbackData(groupAccount, "cancel")},
		},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleAccountCallback(ctx context.Context, chatID, userID int64, msgID int, cb callback) error {
	switch cb.Action {
	case "cancel":
		return b.edit(chatID, msgID, "Account deletion cancelled.", createKeyboard(nil))
	case "delete":
	default:
		return fmt.Errorf("unknown account action %q", cb.Action)
	}

	b.forgetChat(chatID)

	err := b.userRepo.Delete(ctx, userID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return b.replyError(chatID, "delete user", err)
	}

	b.logger.Info("user deleted", zap.Int64("user_id", userID))
	return b.edit(chatID, msgID, "🗑 Your account and words were deleted. Send /start to begin again.", createKeyboard(nil))
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID, userID int64) error {
	if !b.cfg.IsAdmin(userID) {
		return b.sendText(chatID, msgAdminsOnly)
	}

	users, err := b.userRepo.Count(ctx)
	if err != nil {
		return b.replyError(chatID, "count users", err)
	}

	b.mu.Lock()
	chats := len(b.chats)
	b.mu.Unlock()

	return b.sendText(chatID, fmt.Sprintf("👥 Users: %d\n💬 Active chats: %d", users, chats))
}

func (b *Bot) handleUnknownCommand(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see what I can do.")
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleExtractCommand(ctx context.Context, chatID, userID int64, args string) error {
	if args != "" {
		return b.extractText(ctx, chatID, userID, args)
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	cs.awaiting = uploadExtract
	cs.mu.Unlock()

	return b.sendText(chatID, fmt.Sprintf("📄 Send me a document (%s) or paste some text. "+
		"I'll look for definitions like \"Abate: to reduce in intensity\" and let you choose which to keep.",
		strings.Join(extract.SupportedExtensions(), ", ")))
}

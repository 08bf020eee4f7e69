package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.Message == nil || query.Message.Chat == nil || query.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}

	chatID := query.Message.Chat.ID
	userID := query.From.ID

	if !b.requireUser(ctx, chatID, userID) {
		return nil
	}

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.logger.Warn("malformed callback", zap.String("data", query.Data), zap.Error(err))
		return b.sendText(chatID, "⚠️ Unknown action")
	}

	switch cb.Group {
	case cbMenu:
		return b.showMainMenu(chatID)
	case cbHelp:
		return b.handleHelp(chatID)
	case cbStudy:
		return b.startStudy(ctx, chatID, userID)
	case cbChecklist:
		return b.startChecklist(ctx, chatID, userID)
	case cbStats:
		return b.handleStats(ctx, chatID, userID)
	case cbList:
		return b.handleList(ctx, chatID, userID, "")
	case cbSettings:
		return b.handleSettings(ctx, chatID, userID)
	case cbExtract:
		return b.handleExtractCommand(ctx, chatID, userID, "")
	case cbImport:
		return b.handleImportCommand(chatID)
	case groupReview:
		return b.handleReviewCallback(ctx, chatID, userID, cb)
	case groupStudy:
		return b.handleStudyCallback(ctx, chatID, userID, cb)
	case groupChecklist:
		return b.handleChecklistCallback(ctx, chatID, userID, cb)
	case groupSettings:
		return b.handleSettingsCallback(ctx, chatID, userID, query.Message.MessageID, cb)
	case groupAccount:
		return b.handleAccountCallback(ctx, chatID, userID, query.Message.MessageID, cb)
	default:
		return b.sendText(chatID, "⚠️ Unknown action")
	}
}

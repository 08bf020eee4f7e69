package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/grevocab/internal/database"
	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/internal/importer"
	"github.com/example/grevocab/pkg/models"
)

// maxReportedErrors limits the row errors listed after an import
const maxReportedErrors = 5

func (b *Bot) handleImportCommand(chatID int64) error {
	cs := b.chat(chatID)
	cs.mu.Lock()
	cs.awaiting = uploadImport
	cs.mu.Unlock()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "sample.json", Bytes: importer.SampleJSON()})
	doc.Caption = fmt.Sprintf("📥 Send me a word list (%s).\n"+
		"JSON and YAML files hold a list of {word, definition} objects like this sample. "+
		"Spreadsheets use column A for the word and column B for the definition.",
		strings.Join(importer.SupportedExtensions(), ", "))
	return b.sendMessage(doc)
}

// handleDocument routes an uploaded file to import or extraction
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	doc := message.Document

	cs := b.chat(chatID)
	cs.mu.Lock()
	mode := cs.awaiting
	cs.awaiting = uploadNone
	cs.mu.Unlock()

	if mode == uploadNone {
		mode = uploadExtract
		if importer.IsSupported(doc.FileName) {
			mode = uploadImport
		}
	}

	if doc.FileSize > b.decoder.MaxBytes {
		return b.sendText(chatID, fmt.Sprintf("⚠️ That file is too large. The limit is %d MB.", b.decoder.MaxBytes>>20))
	}

	data, err := b.download(ctx, doc.FileID)
	if errors.Is(err, extract.ErrDocumentTooLarge) {
		return b.sendText(chatID, fmt.Sprintf("⚠️ That file is too large. The limit is %d MB.", b.decoder.MaxBytes>>20))
	}
	if err != nil {
		return b.replyError(chatID, "download document", err)
	}

	b.logger.Info("document received",
		zap.Int64("user_id", userID),
		zap.String("file_name", doc.FileName),
		zap.Int("bytes", len(data)))

	if mode == uploadImport {
		return b.importDocument(ctx, chatID, userID, doc.FileName, data)
	}
	return b.extractDocument(ctx, chatID, userID, doc.FileName, doc.MimeType, data)
}

// download fetches a Telegram file, refusing anything over the decoder limit
func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(b.decoder.MaxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > b.decoder.MaxBytes {
		return nil, extract.ErrDocumentTooLarge
	}
	return data, nil
}

func (b *Bot) importDocument(ctx context.Context, chatID, userID int64, name string, data []byte) error {
	existing, err := b.wordRepo.ExistingWords(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "import", err)
	}

	res, err := importer.Parse(name, bytes.NewReader(data), existing)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return b.sendText(chatID, fmt.Sprintf("⚠️ I can't import %q. Supported formats: %s.",
			name, strings.Join(importer.SupportedExtensions(), ", ")))
	}
	var parseErr *importer.ParseError
	if errors.As(err, &parseErr) {
		return b.sendText(chatID, fmt.Sprintf("⚠️ Could not read %s file: %s", parseErr.Format, parseErr.Reason))
	}
	if err != nil {
		return b.replyError(chatID, "import", err)
	}

	if len(res.Valid) > 0 {
		if _, err := b.wordRepo.AddBatch(ctx, userID, res.Valid); err != nil {
			return b.replyError(chatID, "import", err)
		}
	}

	var sb strings.Builder
	if len(res.Valid) > 0 {
		fmt.Fprintf(&sb, "✅ Imported %s.\n", pluralWords(len(res.Valid)))
	} else {
		sb.WriteString("No new words were imported.\n")
	}
	sb.WriteString(res.Summary())
	for i, e := range res.Errors {
		if i == maxReportedErrors {
			fmt.Fprintf(&sb, "\n…and %d more problems", len(res.Errors)-i)
			break
		}
		sb.WriteString("\n• " + e)
	}
	return b.sendText(chatID, sb.String())
}

func (b *Bot) extractDocument(ctx context.Context, chatID, userID int64, name, mimeType string, data []byte) error {
	text, err := b.decoder.Decode(name, mimeType, data)
	switch {
	case errors.Is(err, extract.ErrUnsupportedDocument):
		return b.sendText(chatID, fmt.Sprintf("⚠️ I can't read %q. Supported documents: %s.",
			name, strings.Join(extract.SupportedExtensions(), ", ")))
	case errors.Is(err, extract.ErrDocumentTooLarge):
		return b.sendText(chatID, fmt.Sprintf("⚠️ That file is too large. The limit is %d MB.", b.decoder.MaxBytes>>20))
	case err != nil:
		b.logger.Warn("failed to decode document", zap.String("file_name", name), zap.Error(err))
		return b.sendText(chatID, "⚠️ I couldn't read any text from that document.")
	}
	return b.extractText(ctx, chatID, userID, text)
}

// extractText runs the extractor and opens a review of the candidates
func (b *Bot) extractText(ctx context.Context, chatID, userID int64, text string) error {
	existing, err := b.wordRepo.ExistingWords(ctx, userID)
	if err != nil {
		return b.replyError(chatID, "extract", err)
	}

	candidates := extract.Extract(text, existing)
	if len(candidates) == 0 {
		return b.sendText(chatID, "No definitions found. I look for lines like \"Word: definition\", "+
			"\"Word - definition\" or \"Word means definition\".")
	}

	review := extract.NewReview(candidates)
	reviewText, markup := renderReview(review, false)
	msg := tgbotapi.NewMessage(chatID, reviewText)
	msg.ReplyMarkup = markup
	msgID, err := b.send(msg)
	if err != nil {
		return err
	}

	cs := b.chat(chatID)
	cs.mu.Lock()
	cs.awaiting = uploadNone
	cs.review = review
	cs.reviewMsgID = msgID
	cs.showLowReview = false
	cs.mu.Unlock()
	return nil
}

func (b *Bot) handleReviewCallback(ctx context.Context, chatID, userID int64, cb callback) error {
	cs := b.chat(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	review := cs.review
	if review == nil {
		return b.sendText(chatID, msgNoReview)
	}

	switch cb.Action {
	case "t":
		review.Toggle(cb.Arg)
	case "all":
		review.SelectAll()
	case "none":
		review.DeselectAll()
	case "low":
		cs.showLowReview = !cs.showLowReview
	case "cancel":
		cs.review = nil
		return b.edit(chatID, cs.reviewMsgID, "Extraction discarded.", createKeyboard(nil))
	case "save":
		return b.saveReview(ctx, chatID, userID, cs)
	default:
		return fmt.Errorf("unknown review action %q", cb.Action)
	}

	text, markup := renderReview(review, cs.showLowReview)
	return b.edit(chatID, cs.reviewMsgID, text, markup)
}

// saveReview stores the selected candidates. cs.mu is held.
func (b *Bot) saveReview(ctx context.Context, chatID, userID int64, cs *chatState) error {
	selected := cs.review.Selected()
	if len(selected) == 0 {
		return b.sendText(chatID, "Select at least one word first.")
	}

	wds := make([]models.WordDefinition, len(selected))
	for i, c := range selected {
		wds[i] = models.WordDefinition{Word: c.Word, Definition: c.Definition}
	}

	if _, err := b.wordRepo.AddBatch(ctx, userID, wds); err != nil {
		return b.replyError(chatID, "save extracted words", err)
	}

	cs.review = nil
	return b.edit(chatID, cs.reviewMsgID, fmt.Sprintf("💾 Saved %s to your vocabulary.", pluralWords(len(wds))), createKeyboard(nil))
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64, args string) error {
	format := strings.ToLower(args)
	if format == "" {
		format = importer.FormatXLSX
	}

	entries, err := b.wordRepo.ListByOwner(ctx, userID, database.SortAlphabetical)
	if err != nil {
		return b.replyError(chatID, "export", err)
	}
	if len(entries) == 0 {
		return b.sendText(chatID, "You have no words to export yet.")
	}

	var buf bytes.Buffer
	err = importer.Export(&buf, format, entries)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return b.sendText(chatID, "Usage: /export [xlsx|json|yaml]")
	}
	if err != nil {
		return b.replyError(chatID, "export", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "vocabulary." + format, Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("📤 %s exported.", pluralWords(len(entries)))
	return b.sendMessage(doc)
}

// Package telegram adapts the Bot API to the conversation package: inbound
// updates become conversation.Inbound values, replies go out through Outbox.
package telegram

import (
	"context"
	"fmt"

	"batch_txt_bot/src/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used for replies
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Outbox implements conversation.Outbox over the Bot API
type Outbox struct {
	api Sender
}

func NewOutbox(api Sender) *Outbox {
	return &Outbox{api: api}
}

func (o *Outbox) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// SendMarkdown sends text with Markdown parsing and retries as plain text
// when Telegram rejects the entities.
func (o *Outbox) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := o.api.Send(msg); err != nil {
		logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Markdown rejected, sending plain text")
		return o.SendText(ctx, chatID, text)
	}
	return nil
}

func (o *Outbox) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := o.api.Send(doc); err != nil {
		return fmt.Errorf("send document %s to %d: %w", name, chatID, err)
	}
	return nil
}

// AuditReporter logs faults and mirrors a one-line report to the audit chat
type AuditReporter struct {
	api    Sender
	chatID int64
}

// NewAuditReporter creates a reporter. A zero chatID only logs.
func NewAuditReporter(api Sender, chatID int64) *AuditReporter {
	return &AuditReporter{api: api, chatID: chatID}
}

func (r *AuditReporter) Report(_ context.Context, source string, err error) {
	logger.Error().Err(err).Str("source", source).Msg("Fault")
	if r.chatID == 0 {
		return
	}
	if _, sendErr := r.api.Send(tgbotapi.NewMessage(r.chatID, fmt.Sprintf("Error: %v", err))); sendErr != nil {
		logger.Error().Err(sendErr).Msg("Failed to report fault to audit chat")
	}
}

package telegram

import (
	"context"
	"fmt"

	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot owns the Bot API connection and long polling
type Bot struct {
	API         *tgbotapi.BotAPI
	pollTimeout int
}

// NewBot authenticates with the Bot API
func NewBot(cfg model.BotConfig) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")
	return &Bot{API: api, pollTimeout: cfg.PollTimeout}, nil
}

// Run long-polls updates into d until ctx is cancelled
func (b *Bot) Run(ctx context.Context, d *Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.API.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.API.StopReceivingUpdates()
	}()

	logger.Info().Int("poll_timeout", b.pollTimeout).Msg("Bot is polling")
	return d.Run(ctx, updates)
}

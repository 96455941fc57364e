// Package telegram delivers usage reports to a Telegram chat as an
// alternative push channel to LINE.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"

	"github.com/edgard/linerelay/internal/relayerr"
)

// Pusher sends plain text messages through the Telegram Bot API.
type Pusher struct {
	bot *bot.Bot
	log *slog.Logger
}

// NewPusher creates a send-only Telegram bot. No updates are polled; the
// getMe check is skipped so construction does not touch the network.
func NewPusher(token string, logger *slog.Logger, opts ...bot.Option) (*Pusher, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_pusher")

	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Pusher{bot: b, log: log}, nil
}

// Push sends text to a chat. Numeric recipients are chat IDs, anything else
// is passed through as a channel username such as "@reports".
func (p *Pusher) Push(ctx context.Context, to, text string) error {
	if to == "" {
		return relayerr.Configuration("push recipient is empty")
	}

	msg, err := p.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(to),
		Text:   text,
	})
	if err != nil {
		return relayerr.Upstream("telegram.send_message", err)
	}

	p.log.DebugContext(ctx, "Message sent", "chat_id", msg.Chat.ID, "message_id", msg.ID)
	return nil
}

func chatID(to string) any {
	if id, err := strconv.ParseInt(to, 10, 64); err == nil {
		return id
	}
	return to
}

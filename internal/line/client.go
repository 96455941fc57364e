package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
)

// Client sends text messages through the Messaging API. It is safe for
// concurrent use: every call gets its own SDK handle bound to the call's
// context, and only the underlying http.Client is shared.
type Client struct {
	token string
	opts  []messaging_api.MessagingApiAPIOption
	log   *slog.Logger
}

// NewClient builds a Messaging API client from the LINE channel settings.
func NewClient(cfg config.LINEConfig, log *slog.Logger) (*Client, error) {
	if cfg.ChannelAccessToken == "" {
		return nil, errors.New("LINE channel access token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(cfg.Endpoint))
	}

	if _, err := messaging_api.NewMessagingApiAPI(cfg.ChannelAccessToken, opts...); err != nil {
		return nil, fmt.Errorf("failed to create messaging API client: %w", err)
	}

	return &Client{token: cfg.ChannelAccessToken, opts: opts, log: log.With("component", "line_client")}, nil
}

// api returns a handle whose requests are canceled with ctx. WithContext
// mutates the handle, so it is never shared between calls.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	api, err := messaging_api.NewMessagingApiAPI(c.token, c.opts...)
	if err != nil {
		return nil, err
	}
	return api.WithContext(ctx), nil
}

// Reply answers one event using its reply token. The token is consumed by
// the platform whether or not the call succeeds.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	if replyToken == "" {
		return relayerr.Upstream("line.reply", errors.New("empty reply token"))
	}

	api, err := c.api(ctx)
	if err != nil {
		return relayerr.Upstream("line.reply", err)
	}

	_, err = api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{textMessage(text)},
	})
	if err != nil {
		return relayerr.Upstream("line.reply", err)
	}

	c.log.DebugContext(ctx, "Reply sent", "text_length", len(text))
	return nil
}

// Push sends one text message to a user, group or room ID. Each call carries
// a fresh retry key so the platform can deduplicate transport retries.
func (c *Client) Push(ctx context.Context, to, text string) error {
	if to == "" {
		return relayerr.Configuration("push recipient is empty")
	}

	api, err := c.api(ctx)
	if err != nil {
		return relayerr.Upstream("line.push", err)
	}

	retryKey := uuid.NewString()
	_, err = api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{textMessage(text)},
	}, retryKey)
	if err != nil {
		return relayerr.Upstream("line.push", err)
	}

	c.log.DebugContext(ctx, "Push sent", "retry_key", retryKey, "text_length", len(text))
	return nil
}

func textMessage(text string) messaging_api.TextMessage {
	r := []rune(text)
	if len(r) > maxReplyTextLength {
		text = string(r[:maxReplyTextLength])
	}
	return messaging_api.TextMessage{Text: text}
}

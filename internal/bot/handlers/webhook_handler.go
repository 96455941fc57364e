package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/linerelay/internal/line"
	"github.com/edgard/linerelay/internal/logger"
	"github.com/edgard/linerelay/internal/metrics"
	"github.com/edgard/linerelay/internal/sanitize"
)

const logPreviewLength = 80

type webhookHandler struct {
	deps  HandlerDeps
	log   *slog.Logger
	plain *sanitize.Policy
}

// NewWebhookHandler creates the POST /webhook handler. Every event in a batch
// is handled concurrently and in isolation; the response is sent once all of
// them have finished.
func NewWebhookHandler(deps HandlerDeps) gin.HandlerFunc {
	h := webhookHandler{deps: deps, log: deps.Logger.With("handler", "webhook")}
	if deps.Config.AI.PlainText {
		h.plain = sanitize.NewPlainTextPolicy()
	}
	return h.Handle
}

func (h webhookHandler) Handle(c *gin.Context) {
	log := h.log.With("request_id", logger.GetRequestID(c))

	body, err := c.GetRawData()
	if err != nil {
		log.ErrorContext(c, "Failed to read webhook body", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	events := line.ParseEvents(body)
	h.deps.Metrics.BatchReceived(len(events))
	if len(events) == 0 {
		log.DebugContext(c, "Webhook without events")
		c.JSON(http.StatusOK, gin.H{"message": "No events"})
		return
	}

	log.InfoContext(c, "Webhook received", "events", len(events))

	// Replies must still go out if the platform drops the connection early.
	ctx := context.WithoutCancel(c.Request.Context())

	var g errgroup.Group
	for i, ev := range events {
		g.Go(func() error {
			h.handleEvent(ctx, log.With("event_index", i), ev)
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

// handleEvent never returns an error: every outcome is logged and counted here.
func (h webhookHandler) handleEvent(ctx context.Context, log *slog.Logger, ev webhook.EventInterface) {
	log = log.With(line.Describe(ev)...)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Panic while handling event", "panic", r, "stack", string(debug.Stack()))
			h.deps.Metrics.EventProcessed(metrics.OutcomePanic)
		}
	}()

	replyToken, text, ok := line.TextEvent(ev)
	if !ok {
		log.DebugContext(ctx, "Ignoring non-text event")
		h.deps.Metrics.EventProcessed(metrics.OutcomeIgnoredType)
		return
	}

	if !IsMentioned(text, h.deps.Config.LINE.BotName) {
		log.DebugContext(ctx, "Bot not mentioned, skipping")
		h.deps.Metrics.EventProcessed(metrics.OutcomeNoMention)
		return
	}

	prompt := CleanPrompt(text)
	if prompt == "" {
		log.DebugContext(ctx, "Mention without prompt, skipping")
		h.deps.Metrics.EventProcessed(metrics.OutcomeEmptyPrompt)
		return
	}

	log.InfoContext(ctx, "Handling mention", "prompt_preview", logger.TruncateString(prompt, logPreviewLength))

	reply, err := h.complete(ctx, prompt)
	outcome := metrics.OutcomeReplied
	if err != nil {
		log.ErrorContext(ctx, "Completion failed, sending fallback reply", "error", err)
		reply = h.deps.Config.Messages.ErrorFallback
		outcome = metrics.OutcomeFallback
	}

	// The reply token is spent by this call, so a failure here is final.
	if err := h.deps.Replier.Reply(ctx, replyToken, reply); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "fallback", outcome == metrics.OutcomeFallback)
		h.deps.Metrics.EventProcessed(metrics.OutcomeReplyFailed)
		return
	}

	log.InfoContext(ctx, "Reply sent", "fallback", outcome == metrics.OutcomeFallback, "reply_length", len(reply))
	h.deps.Metrics.EventProcessed(outcome)
}

// complete turns a panicking client into an ordinary failure so the event
// still gets its fallback reply.
func (h webhookHandler) complete(ctx context.Context, prompt string) (reply string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			reply, err = "", fmt.Errorf("completion panicked: %v", r)
		}
		h.deps.Metrics.CompletionObserved(h.deps.AI.Provider(), time.Since(start), err)
	}()

	reply, err = h.deps.AI.Complete(ctx, prompt)
	if err == nil && h.plain != nil {
		reply = h.plain.PlainText(reply)
	}
	if err == nil && reply == "" {
		err = errors.New("empty completion")
	}
	return reply, err
}

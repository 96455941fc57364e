// Package handlers implements the HTTP endpoints of the relay: the LINE
// webhook and the usage query.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/linerelay/internal/ai"
	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/metrics"
	"github.com/edgard/linerelay/internal/usage"
)

// Replier sends exactly one reply for a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// HandlerDeps provides dependencies for the HTTP handlers. All fields are
// read-only once the server starts.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	AI       ai.Client
	Replier  Replier
	Usage    usage.Fetcher
	Metrics  *metrics.Metrics
	Location *time.Location
	Now      func() time.Time
}

func (d HandlerDeps) now() time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	if d.Now == nil {
		return time.Now().In(loc)
	}
	return d.Now().In(loc)
}

// Package report builds the month-to-date usage report and pushes it to the
// configured recipient.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/metrics"
	"github.com/edgard/linerelay/internal/relayerr"
	"github.com/edgard/linerelay/internal/usage"
)

const periodLayout = "2006/01/02 15:04"

// Pusher sends one text message to a recipient.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// Deps bundles what a Reporter needs.
type Deps struct {
	Fetcher   usage.Fetcher
	Pusher    Pusher
	Recipient string
	Location  *time.Location
	Messages  config.MessagesConfig
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Reporter runs one usage report per call to Run.
type Reporter struct {
	deps Deps
	log  *slog.Logger
}

// New creates a Reporter, filling in defaults for Logger, Location and Now.
func New(deps Deps) *Reporter {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Reporter{deps: deps, log: deps.Logger.With("component", "usage_reporter")}
}

// Run fetches month-to-date usage and pushes the formatted report. A missing
// recipient fails before anything is fetched. Failures are logged and returned
// for the caller to decide on retries.
func (r *Reporter) Run(ctx context.Context) (err error) {
	defer func() { r.deps.Metrics.ReportRun(err) }()

	if strings.TrimSpace(r.deps.Recipient) == "" {
		err = relayerr.Configuration("report recipient is not configured")
		r.log.ErrorContext(ctx, "Usage report aborted", "error", err)
		return err
	}

	window := usage.MonthToDate(r.deps.Now().In(r.deps.Location))
	summary, err := r.deps.Fetcher.Fetch(ctx, window)
	r.deps.Metrics.UsageFetched(err)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to fetch usage", "error", err)
		return fmt.Errorf("fetching usage: %w", err)
	}

	text := Format(summary, r.deps.Location, r.deps.Messages)
	if err = r.deps.Pusher.Push(ctx, r.deps.Recipient, text); err != nil {
		r.log.ErrorContext(ctx, "Failed to push usage report", "error", err)
		return fmt.Errorf("pushing usage report: %w", err)
	}

	r.log.InfoContext(ctx, "Usage report sent",
		"total_tokens", summary.TotalTokens,
		"approx_cost_usd", summary.ApproxCostUSD)
	return nil
}

// Format renders a summary as the multi-line report text.
func Format(s *usage.Summary, loc *time.Location, msgs config.MessagesConfig) string {
	var b strings.Builder

	b.WriteString(msgs.ReportHeader)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "期間: %s 〜 %s\n",
		s.Start.In(loc).Format(periodLayout), s.End.In(loc).Format(periodLayout))
	fmt.Fprintf(&b, "トークン数: %s\n", humanize.Comma(s.TotalTokens))
	fmt.Fprintf(&b, "  入力: %s / 出力: %s\n", humanize.Comma(s.InputTokens), humanize.Comma(s.OutputTokens))
	fmt.Fprintf(&b, "リクエスト数: %s\n", humanize.Comma(s.Requests))
	fmt.Fprintf(&b, "概算コスト: $%.2f", s.ApproxCostUSD)

	if msgs.ReportDisclaimer != "" {
		b.WriteString("\n\n")
		b.WriteString(msgs.ReportDisclaimer)
	}
	return b.String()
}

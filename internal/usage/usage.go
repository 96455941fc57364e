// Package usage fetches token usage from the completion provider and turns it
// into a month-to-date summary with an approximate cost.
package usage

import (
	"context"
	"time"
)

// Fetcher returns the usage summary for a window.
type Fetcher interface {
	Fetch(ctx context.Context, w Window) (*Summary, error)
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthToDate returns the window from midnight on the first day of now's
// month, in now's location, through now.
func MonthToDate(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: now}
}

// Summary aggregates usage over a window. It is computed fresh on every
// fetch and never cached.
type Summary struct {
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	InputTokens   int64        `json:"input_tokens"`
	OutputTokens  int64        `json:"output_tokens"`
	CachedTokens  int64        `json:"cached_tokens"`
	TotalTokens   int64        `json:"total_tokens"`
	Requests      int64        `json:"requests"`
	ApproxCostUSD float64      `json:"approx_cost_usd"`
	ByModel       []ModelUsage `json:"by_model"`
}

// ModelUsage is the per-model share of a Summary.
type ModelUsage struct {
	Model         string  `json:"model"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	CachedTokens  int64   `json:"cached_tokens"`
	Requests      int64   `json:"requests"`
	ApproxCostUSD float64 `json:"approx_cost_usd"`
	Priced        bool    `json:"priced"`
}

package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
)

const (
	completionsPath = "/organization/usage/completions"
	maxPages        = 20
	// One daily bucket per day of the longest month.
	pageLimit = 31
)

type completionsResult struct {
	InputTokens       int64  `json:"input_tokens"`
	OutputTokens      int64  `json:"output_tokens"`
	InputCachedTokens int64  `json:"input_cached_tokens"`
	NumModelRequests  int64  `json:"num_model_requests"`
	Model             string `json:"model"`
}

type usageBucket struct {
	StartTime int64               `json:"start_time"`
	EndTime   int64               `json:"end_time"`
	Results   []completionsResult `json:"results"`
}

type usagePage struct {
	Data     []usageBucket `json:"data"`
	HasMore  bool          `json:"has_more"`
	NextPage string        `json:"next_page"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client reads the OpenAI organization usage API. It needs an admin key.
type Client struct {
	baseURL    string
	adminKey   string
	prices     *PriceTable
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a usage client from config.
func NewClient(cfg config.UsageConfig, log *slog.Logger) (*Client, error) {
	if cfg.AdminKey == "" {
		return nil, errors.New("usage admin key is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		adminKey:   cfg.AdminKey,
		prices:     NewPriceTable(cfg.Pricing),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "usage_client"),
	}, nil
}

// Fetch pages through daily completion buckets grouped by model and
// aggregates them over w.
func (c *Client) Fetch(ctx context.Context, w Window) (*Summary, error) {
	byModel := make(map[string]*ModelUsage)

	page := ""
	for i := 0; i < maxPages; i++ {
		p, err := c.fetchPage(ctx, w, page)
		if err != nil {
			return nil, relayerr.Upstream("usage.completions", err)
		}
		for _, bucket := range p.Data {
			for _, r := range bucket.Results {
				m, ok := byModel[r.Model]
				if !ok {
					m = &ModelUsage{Model: r.Model}
					byModel[r.Model] = m
				}
				m.InputTokens += r.InputTokens
				m.OutputTokens += r.OutputTokens
				m.CachedTokens += r.InputCachedTokens
				m.Requests += r.NumModelRequests
			}
		}
		if !p.HasMore || p.NextPage == "" {
			break
		}
		page = p.NextPage
		if i == maxPages-1 {
			c.log.WarnContext(ctx, "Usage pagination stopped early", "pages", maxPages)
		}
	}

	return c.summarize(w, byModel), nil
}

func (c *Client) summarize(w Window, byModel map[string]*ModelUsage) *Summary {
	models := make([]ModelUsage, 0, len(byModel))
	for _, m := range byModel {
		if price, ok := c.prices.Lookup(m.Model); ok {
			m.Priced = true
			m.ApproxCostUSD = price.Cost(m.InputTokens, m.OutputTokens, m.CachedTokens)
		}
		models = append(models, *m)
	}
	sort.Slice(models, func(i, j int) bool {
		ti := models[i].InputTokens + models[i].OutputTokens
		tj := models[j].InputTokens + models[j].OutputTokens
		if ti != tj {
			return ti > tj
		}
		return models[i].Model < models[j].Model
	})

	s := &Summary{
		Start:         w.Start,
		End:           w.End,
		InputTokens:   lo.SumBy(models, func(m ModelUsage) int64 { return m.InputTokens }),
		OutputTokens:  lo.SumBy(models, func(m ModelUsage) int64 { return m.OutputTokens }),
		CachedTokens:  lo.SumBy(models, func(m ModelUsage) int64 { return m.CachedTokens }),
		Requests:      lo.SumBy(models, func(m ModelUsage) int64 { return m.Requests }),
		ApproxCostUSD: lo.SumBy(models, func(m ModelUsage) float64 { return m.ApproxCostUSD }),
		ByModel:       models,
	}
	s.TotalTokens = s.InputTokens + s.OutputTokens
	return s
}

func (c *Client) fetchPage(ctx context.Context, w Window, page string) (*usagePage, error) {
	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(w.Start.Unix(), 10))
	q.Set("end_time", strconv.FormatInt(w.End.Unix(), 10))
	q.Set("bucket_width", "1d")
	q.Add("group_by", "model")
	q.Set("limit", strconv.Itoa(pageLimit))
	if page != "" {
		q.Set("page", page)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+completionsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.adminKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var p usagePage
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &p, nil
}

package usage

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/edgard/linerelay/internal/config"
)

// Price is USD per one million tokens.
type Price struct {
	InputPerMillion       float64
	OutputPerMillion      float64
	CachedInputPerMillion float64
}

// USD per 1M tokens. Cached input is billed instead of, not on top of, input.
var defaultPrices = map[string]Price{
	"gpt-4.1":       {InputPerMillion: 2.00, OutputPerMillion: 8.00, CachedInputPerMillion: 0.50},
	"gpt-4.1-mini":  {InputPerMillion: 0.40, OutputPerMillion: 1.60, CachedInputPerMillion: 0.10},
	"gpt-4.1-nano":  {InputPerMillion: 0.10, OutputPerMillion: 0.40, CachedInputPerMillion: 0.025},
	"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.00, CachedInputPerMillion: 1.25},
	"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60, CachedInputPerMillion: 0.075},
	"o3":            {InputPerMillion: 10.00, OutputPerMillion: 40.00, CachedInputPerMillion: 2.50},
	"o3-mini":       {InputPerMillion: 1.10, OutputPerMillion: 4.40, CachedInputPerMillion: 0.275},
	"o4-mini":       {InputPerMillion: 1.10, OutputPerMillion: 4.40, CachedInputPerMillion: 0.275},
	"o1":            {InputPerMillion: 15.00, OutputPerMillion: 60.00, CachedInputPerMillion: 7.50},
	"o1-mini":       {InputPerMillion: 1.10, OutputPerMillion: 4.40, CachedInputPerMillion: 0.55},
	"gpt-4-turbo":   {InputPerMillion: 10.00, OutputPerMillion: 30.00, CachedInputPerMillion: 5.00},
	"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50, CachedInputPerMillion: 0.25},
}

// PriceTable resolves a model name to its price by longest matching prefix,
// so dated snapshots such as "gpt-4o-mini-2024-07-18" use the family price.
type PriceTable struct {
	prices   map[string]Price
	prefixes []string
}

// NewPriceTable merges config overrides onto the built-in prices.
func NewPriceTable(overrides map[string]config.ModelPrice) *PriceTable {
	prices := make(map[string]Price, len(defaultPrices)+len(overrides))
	for model, p := range defaultPrices {
		prices[model] = p
	}
	for model, p := range overrides {
		prices[strings.ToLower(model)] = Price{
			InputPerMillion:       p.Input,
			OutputPerMillion:      p.Output,
			CachedInputPerMillion: p.CachedInput,
		}
	}

	prefixes := lo.Keys(prices)
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	return &PriceTable{prices: prices, prefixes: prefixes}
}

// Lookup returns the price for model and whether one was found.
func (t *PriceTable) Lookup(model string) (Price, bool) {
	model = strings.ToLower(model)
	for _, prefix := range t.prefixes {
		if strings.HasPrefix(model, prefix) {
			return t.prices[prefix], true
		}
	}
	return Price{}, false
}

// Cost prices one model's token counts. Cached tokens are a subset of input
// tokens and are billed at the cached rate.
func (p Price) Cost(input, output, cached int64) float64 {
	uncached := input - cached
	if uncached < 0 {
		uncached = 0
	}
	cost := float64(uncached) * p.InputPerMillion / 1_000_000
	cost += float64(cached) * p.CachedInputPerMillion / 1_000_000
	cost += float64(output) * p.OutputPerMillion / 1_000_000
	return cost
}

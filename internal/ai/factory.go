package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/linerelay/internal/config"
)

// Supported completion backends.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewClient creates and returns a Client based on the provided configuration.
// It acts as a factory, selecting either the OpenAI or Gemini implementation,
// and puts it behind a circuit breaker unless cfg.Breaker disables it.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("Initializing AI client", "provider", cfg.Provider, "model", cfg.Model)

	var client Client
	switch cfg.Provider {
	case ProviderOpenAI:
		c, err := newOpenAIClient(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		client = c
	case ProviderGemini:
		c, err := newGeminiClient(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown AI provider specified: %s", cfg.Provider)
	}

	return withBreaker(client, cfg.Breaker, log), nil
}

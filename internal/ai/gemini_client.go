package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
)

// geminiClient implements Client using the Gemini generateContent API.
type geminiClient struct {
	genaiClient   *genai.Client
	model         string
	contentConfig *genai.GenerateContentConfig
	log           *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	return &geminiClient{
		genaiClient: gi,
		model:       cfg.Model,
		contentConfig: &genai.GenerateContentConfig{
			Temperature:       &temperature,
			MaxOutputTokens:   int32(cfg.MaxTokens),
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}},
		},
		log: log.With("component", "gemini_client"),
	}, nil
}

func (c *geminiClient) Provider() string { return ProviderGemini }

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()
	c.log.DebugContext(ctx, "Requesting content generation", "model", c.model, "prompt_length", len(prompt))

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, c.contentConfig)
	if err != nil {
		return "", relayerr.Upstream("gemini.generate_content", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", relayerr.Upstream("gemini.generate_content",
			fmt.Errorf("blocked by safety filter: %v", fb.BlockReason))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", relayerr.Upstream("gemini.generate_content", errors.New("response contained no content"))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", relayerr.Upstream("gemini.generate_content",
			fmt.Errorf("empty text, finish reason: %v", resp.Candidates[0].FinishReason))
	}

	c.log.DebugContext(ctx, "Content generation received", "duration_ms", time.Since(startTime).Milliseconds())
	return text, nil
}

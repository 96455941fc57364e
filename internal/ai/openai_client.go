package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
)

// openAIClient implements Client using the OpenAI chat completions API.
type openAIClient struct {
	client      *gopenai.Client
	model       string
	instruction string
	maxTokens   int
	temperature float32
	log         *slog.Logger
}

func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	aiConfig := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		aiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	aiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIClient{
		client:      gopenai.NewClientWithConfig(aiConfig),
		model:       cfg.Model,
		instruction: cfg.Instruction,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log.With("component", "openai_client"),
	}, nil
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()
	c.log.DebugContext(ctx, "Requesting chat completion", "model", c.model, "prompt_length", len(prompt))

	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: c.instruction},
			{Role: gopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		var apiErr *gopenai.APIError
		if errors.As(err, &apiErr) {
			c.log.ErrorContext(ctx, "OpenAI API returned an error", "status", apiErr.HTTPStatusCode, "type", apiErr.Type, "error", apiErr.Message)
		}
		return "", relayerr.Upstream("openai.chat_completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", relayerr.Upstream("openai.chat_completion", errors.New("response contained no choices"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", relayerr.Upstream("openai.chat_completion",
			fmt.Errorf("empty content, finish reason: %s", resp.Choices[0].FinishReason))
	}

	c.log.DebugContext(ctx, "Chat completion received",
		"duration_ms", time.Since(startTime).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return text, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/linerelay/internal/relayerr"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "line-token")
	t.Setenv("LINE_BOT_NAME", "bot")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ADMIN_KEY", "")
	t.Setenv("LINE_PUSH_TO", "")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Logger.Level)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, "line-token", cfg.LINE.ChannelAccessToken)
	assert.Equal(t, "bot", cfg.LINE.BotName)
	assert.Equal(t, DefaultAIProvider, cfg.AI.Provider)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.Equal(t, DefaultAIMaxTokens, cfg.AI.MaxTokens)
	assert.InDelta(t, DefaultAITemperature, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, DefaultAITimeout, cfg.AI.Timeout)
	assert.Equal(t, DefaultAIInstruction, cfg.AI.Instruction)
	assert.False(t, cfg.AI.PlainText, "completions are replied verbatim unless plain_text is set")
	assert.Equal(t, DefaultBreakerMaxFailures, cfg.AI.Breaker.MaxFailures)
	assert.Equal(t, DefaultBreakerOpenTimeout, cfg.AI.Breaker.OpenTimeout)
	assert.Equal(t, "sk-test", cfg.Usage.AdminKey, "admin key falls back to the API key")
	assert.Equal(t, DefaultMsgErrorFallback, cfg.Messages.ErrorFallback)
	assert.Empty(t, cfg.Report.Recipient)

	task, ok := cfg.Scheduler.Tasks[UsageReportTask]
	require.True(t, ok)
	assert.False(t, task.Enabled)
	assert.Equal(t, DefaultUsageReportSchedule, task.Schedule)
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINERELAY_AI_MODEL", "gpt-4.1-mini")
	t.Setenv("LINE_PUSH_TO", "U1234567890")

	path := writeFile(t, "config.yaml", `
logger:
  level: debug
  json: false
line:
  bot_name: "@RelayBot"
ai:
  model: gpt-4o
  max_tokens: 300
  timeout: 45s
usage:
  admin_key: sk-admin
  pricing:
    custom-model:
      input: 1.5
      output: 3
scheduler:
  tasks:
    usage_report:
      enabled: true
      schedule: "0 30 8 * * *"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Logger.JSON)
	assert.Equal(t, "bot", cfg.LINE.BotName, "legacy env wins over file")
	assert.Equal(t, "gpt-4.1-mini", cfg.AI.Model, "prefixed env wins over file")
	assert.Equal(t, 300, cfg.AI.MaxTokens)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "sk-admin", cfg.Usage.AdminKey)
	assert.Equal(t, "U1234567890", cfg.Report.Recipient)
	assert.Equal(t, ModelPrice{Input: 1.5, Output: 3}, cfg.Usage.Pricing["custom-model"])

	task := cfg.Scheduler.Tasks[UsageReportTask]
	assert.True(t, task.Enabled)
	assert.Equal(t, "0 30 8 * * *", task.Schedule)
}

func TestLoadConfigPricingDottedModel(t *testing.T) {
	setRequiredEnv(t)

	path := writeFile(t, "config.yaml", `
usage:
  pricing:
    gpt-4.1-mini:
      input: 0.4
      output: 1.6
      cached_input: 0.1
    my-model:
      input: 2
      output: 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Usage.Pricing, 2)
	assert.Equal(t, ModelPrice{Input: 0.4, Output: 1.6, CachedInput: 0.1}, cfg.Usage.Pricing["gpt-4.1-mini"])
	assert.Equal(t, ModelPrice{Input: 2, Output: 8}, cfg.Usage.Pricing["my-model"])
	assert.NotContains(t, cfg.Usage.Pricing, "gpt-4")
}

func TestLoadConfigNormalizesBotName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LINE_BOT_NAME", "  @Relay ")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Relay", cfg.LINE.BotName)
}

func TestLoadConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{
			name: "missing channel access token",
			env:  map[string]string{"LINE_CHANNEL_ACCESS_TOKEN": ""},
		},
		{
			name: "missing bot name",
			env:  map[string]string{"LINE_BOT_NAME": ""},
		},
		{
			name: "missing api key",
			env:  map[string]string{"OPENAI_API_KEY": ""},
		},
		{
			name: "unknown provider",
			yaml: "ai:\n  provider: llama\n",
		},
		{
			name: "temperature out of range",
			yaml: "ai:\n  temperature: 3.5\n",
		},
		{
			name: "telegram channel without token",
			yaml: "report:\n  channel: telegram\n",
		},
		{
			name: "unknown location",
			yaml: "report:\n  location: Mars/Olympus\n",
		},
		{
			name: "enabled task without schedule",
			yaml: "scheduler:\n  tasks:\n    usage_report:\n      enabled: true\n      schedule: \"\"\n",
		},
		{
			name: "malformed yaml",
			yaml: "ai: [unterminated\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "config.yaml", tt.yaml)
			}

			cfg, err := LoadConfig(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, relayerr.ErrConfiguration)
			assert.Nil(t, cfg)
		})
	}
}

func TestReportTimeLocation(t *testing.T) {
	t.Parallel()

	loc, err := ReportConfig{Location: "Asia/Tokyo"}.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	_, err = ReportConfig{Location: "Nowhere/Void"}.TimeLocation()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "LINERELAY_DOTENV_PROBE=from-file\n")
	t.Setenv("LINERELAY_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("LINERELAY_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LINERELAY_DOTENV_PROBE"))
}

// Package config provides configuration loading, validation, and management
// for the relay. Values come from defaults, an optional YAML file, an optional
// .env file and the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"time"
)

// Config defines the application configuration parameters for all components
// of the relay: logging, the HTTP server, the LINE channel, the completion
// provider, the usage API, the usage report and the scheduler.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	LINE      LINEConfig      `mapstructure:"line"`
	AI        AIConfig        `mapstructure:"ai"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Report    ReportConfig    `mapstructure:"report"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
	GinMode         string        `mapstructure:"gin_mode"         validate:"oneof=debug release test"`
}

// LINEConfig holds the Messaging API credentials and the bot's mention name.
type LINEConfig struct {
	ChannelAccessToken string        `mapstructure:"channel_access_token" validate:"required"`
	ChannelSecret      string        `mapstructure:"channel_secret"`
	BotName            string        `mapstructure:"bot_name"             validate:"required"`
	Endpoint           string        `mapstructure:"endpoint"             validate:"omitempty,url"`
	Timeout            time.Duration `mapstructure:"timeout"              validate:"min=1s,max=5m"`
}

// AIConfig configures the completion provider and its fixed generation parameters.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=openai gemini"`
	APIKey      string        `mapstructure:"api_key"     validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=8192"`
	Instruction string        `mapstructure:"instruction" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	PlainText   bool          `mapstructure:"plain_text"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig trips the completion circuit after MaxFailures consecutive
// failures and keeps it open for OpenTimeout. MaxFailures 0 disables it.
type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" validate:"min=0"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"min=0"`
}

// UsageConfig configures the provider usage API used by reports and /usage.
// AdminKey falls back to AI.APIKey when empty.
type UsageConfig struct {
	AdminKey string                `mapstructure:"admin_key"`
	BaseURL  string                `mapstructure:"base_url" validate:"required,url"`
	Timeout  time.Duration         `mapstructure:"timeout"  validate:"min=1s,max=5m"`
	Pricing  map[string]ModelPrice `mapstructure:"pricing"  validate:"dive"`
}

// ModelPrice is a USD price per one million tokens.
type ModelPrice struct {
	Input       float64 `mapstructure:"input"        validate:"min=0"`
	Output      float64 `mapstructure:"output"       validate:"min=0"`
	CachedInput float64 `mapstructure:"cached_input" validate:"min=0"`
}

// ReportConfig configures delivery of the usage report. Recipient is checked
// when a report runs, not at startup.
type ReportConfig struct {
	Channel       string `mapstructure:"channel"        validate:"oneof=line telegram"`
	Recipient     string `mapstructure:"recipient"`
	TelegramToken string `mapstructure:"telegram_token" validate:"required_if=Channel telegram"`
	Location      string `mapstructure:"location"       validate:"required"`
}

// TimeLocation resolves Location for month boundary calculations.
func (c ReportConfig) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid report location %q: %w", c.Location, err)
	}
	return loc, nil
}

// SchedulerConfig lists the in-process scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a registered task on a cron schedule (with seconds field).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the user-facing texts.
type MessagesConfig struct {
	ErrorFallback    string `mapstructure:"error_fallback"    validate:"required"`
	ReportHeader     string `mapstructure:"report_header"     validate:"required"`
	ReportDisclaimer string `mapstructure:"report_disclaimer"`
}

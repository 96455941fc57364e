package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/edgard/linerelay/internal/relayerr"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional; a missing file is not an error)
// 3. environment variables (LINERELAY_* plus the legacy names in envBindings)
//
// Every failure wraps relayerr.ErrConfiguration.
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()

	v, err := newViper()
	if err != nil {
		return nil, relayerr.Configuration("%v", err)
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, relayerr.Configuration("failed to read config file %s: %v", path, err)
			}
			slog.Debug("configuration file loaded", "path", path)
		case errors.Is(statErr, fs.ErrNotExist):
			slog.Info("configuration file not found, using defaults and environment", "path", path)
		default:
			return nil, relayerr.Configuration("failed to stat config file %s: %v", path, statErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, relayerr.Configuration("failed to parse config: %v", err)
	}

	normalize(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, relayerr.Configuration("%v", err)
	}
	if _, err := cfg.Report.TimeLocation(); err != nil {
		return nil, relayerr.Configuration("%v", err)
	}

	slog.Info("configuration loaded successfully",
		"log_level", cfg.Logger.Level,
		"ai_provider", cfg.AI.Provider,
		"ai_model", cfg.AI.Model,
		"report_channel", cfg.Report.Channel,
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
		slog.Debug("env file loaded", "path", p)
	}
	return nil
}

// keyDelimiter separates nested viper keys. Model names in usage.pricing
// contain dots ("gpt-4.1-mini"), so "." cannot be the delimiter.
const keyDelimiter = "::"

// viperKey converts a dotted key from defaults or envBindings.
func viperKey(key string) string {
	return strings.ReplaceAll(key, ".", keyDelimiter)
}

func newViper() (*viper.Viper, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(viperKey(key), value)
	}

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	for key, legacy := range envBindings {
		prefixed := DefaultEnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(viperKey(key), prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	return v, nil
}

func normalize(cfg *Config) {
	cfg.LINE.BotName = strings.TrimPrefix(strings.TrimSpace(cfg.LINE.BotName), "@")
	cfg.Report.Recipient = strings.TrimSpace(cfg.Report.Recipient)

	if cfg.Usage.AdminKey == "" {
		cfg.Usage.AdminKey = cfg.AI.APIKey
	}
}

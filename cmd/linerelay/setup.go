package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/line"
	"github.com/edgard/linerelay/internal/logger"
	"github.com/edgard/linerelay/internal/metrics"
	"github.com/edgard/linerelay/internal/report"
	"github.com/edgard/linerelay/internal/telegram"
	"github.com/edgard/linerelay/internal/usage"
)

// loadConfig reads .env, then the config, then sets up the default logger.
func loadConfig(configPath, envFile string) (*config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		slog.Error("Failed to load env file", "path", envFile, "error", err)
		return nil, nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return nil, nil, err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)
	return cfg, log, nil
}

// newReporter builds the usage reporter on the configured push channel.
func newReporter(cfg *config.Config, fetcher usage.Fetcher, lineClient *line.Client, m *metrics.Metrics, log *slog.Logger) (*report.Reporter, error) {
	loc, err := cfg.Report.TimeLocation()
	if err != nil {
		return nil, err
	}

	var pusher report.Pusher = lineClient
	if cfg.Report.Channel == config.ReportChannelTelegram {
		tg, err := telegram.NewPusher(cfg.Report.TelegramToken, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram pusher: %w", err)
		}
		pusher = tg
	}

	return report.New(report.Deps{
		Fetcher:   fetcher,
		Pusher:    pusher,
		Recipient: cfg.Report.Recipient,
		Location:  loc,
		Messages:  cfg.Messages,
		Logger:    log,
		Metrics:   m,
		Now:       time.Now,
	}), nil
}

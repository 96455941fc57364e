package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/edgard/linerelay/internal/ai"
	"github.com/edgard/linerelay/internal/bot"
	"github.com/edgard/linerelay/internal/bot/handlers"
	"github.com/edgard/linerelay/internal/bot/tasks"
	"github.com/edgard/linerelay/internal/line"
	"github.com/edgard/linerelay/internal/metrics"
	"github.com/edgard/linerelay/internal/server"
	"github.com/edgard/linerelay/internal/usage"
)

func newServeCommand(configPath, envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the LINE webhook and usage endpoints and run scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, *configPath, *envFile)
		},
	}
}

func serve(cmd *cobra.Command, configPath, envFile string) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig(configPath, envFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	aiClient, err := ai.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize AI client", "error", err)
		return err
	}

	lineClient, err := line.NewClient(cfg.LINE, log)
	if err != nil {
		log.Error("Failed to initialize LINE client", "error", err)
		return err
	}

	usageClient, err := usage.NewClient(cfg.Usage, log)
	if err != nil {
		log.Error("Failed to initialize usage client", "error", err)
		return err
	}

	reporter, err := newReporter(cfg, usageClient, lineClient, m, log)
	if err != nil {
		log.Error("Failed to initialize usage reporter", "error", err)
		return err
	}

	loc, err := cfg.Report.TimeLocation()
	if err != nil {
		return err
	}

	router := server.NewRouter(log, m, cfg.Server.GinMode)
	handlers.RegisterRoutes(router, handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		AI:       aiClient,
		Replier:  lineClient,
		Usage:    usageClient,
		Metrics:  m,
		Location: loc,
	})

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Reporter: reporter,
	}), loc)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	app := bot.NewBot(log, server.New(cfg.Server, router, log), sched)

	log.Info("Starting relay...", "addr", cfg.Server.Addr, "bot_name", cfg.LINE.BotName)
	if err := app.Run(ctx); err != nil {
		log.Error("Relay stopped due to error", "error", err)
		return fmt.Errorf("relay stopped: %w", err)
	}

	log.Info("Relay stopped gracefully.")
	return nil
}

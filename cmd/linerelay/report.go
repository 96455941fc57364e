package main

import (
	"github.com/spf13/cobra"

	"github.com/edgard/linerelay/internal/line"
	"github.com/edgard/linerelay/internal/usage"
)

func newReportCommand(configPath, envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Push the month-to-date usage report once and exit",
		Long: "Fetches usage for the current calendar month and pushes the report to " +
			"report.recipient. Meant to be run by an external scheduler; exits non-zero on failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*configPath, *envFile)
			if err != nil {
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

			reporter, err := newReporter(cfg, usageClient, lineClient, nil, log)
			if err != nil {
				log.Error("Failed to initialize usage reporter", "error", err)
				return err
			}

			return reporter.Run(cmd.Context())
		},
	}
}

// Package main contains the entrypoint for the LINE chat relay.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edgard/linerelay/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath, envFile string

	root := &cobra.Command{
		Use:           "linerelay",
		Short:         "LINE group chat relay to an LLM completion API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to configuration file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")

	root.AddCommand(
		newServeCommand(&configPath, &envFile),
		newReportCommand(&configPath, &envFile),
	)
	return root
}

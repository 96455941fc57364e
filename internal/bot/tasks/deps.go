// Package tasks implements the relay's in-process scheduled tasks.
package tasks

import (
	"context"
	"log/slog"
)

// Reporter runs one usage report.
type Reporter interface {
	Run(ctx context.Context) error
}

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Reporter Reporter
}

package tasks

import (
	"context"
	"fmt"
	"time"
)

func newUsageReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "usage_report")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled usage report...")
		startTime := time.Now()

		err := deps.Reporter.Run(ctx)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Usage report task failed", "error", err, "duration", duration)
			return fmt.Errorf("usage report failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled usage report completed", "duration", duration)
		return nil
	}
}

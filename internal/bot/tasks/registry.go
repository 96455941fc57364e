package tasks

import (
	"context"

	"github.com/edgard/linerelay/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. Returned
// errors are logged by the scheduler; the task is not retried.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the tasks keyed by the name used under
// scheduler.tasks in the config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	if deps.Reporter != nil {
		tasks[config.UsageReportTask] = newUsageReportTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

package logger

import (
	"errors"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger adapts log to gocron.Logger. gocron reports every job run
// at Info, so Info is demoted to Debug to keep scheduler chatter out of the
// default output.
//
//nolint:ireturn // Interface return is required by gocron's API contract
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return &gocronLogger{log: log.With("component", "gocron")}
}

func (l *gocronLogger) Debug(msg string, args ...any) {
	l.log.Debug(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Info(msg string, args ...any) {
	l.log.Debug(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Warn(msg string, args ...any) {
	l.log.Warn(msg, schedulerArgs(args)...)
}

func (l *gocronLogger) Error(msg string, args ...any) {
	l.log.Error(msg, schedulerArgs(args)...)
}

// schedulerArgs tags gocron's own job errors so they can be told apart from
// task failures.
func schedulerArgs(args []any) []any {
	out := make([]any, 0, len(args)+2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, args[i])
			break
		}
		key, val := args[i], args[i+1]
		out = append(out, key, val)
		if err, ok := val.(error); ok && errorKind(err) != "" {
			out = append(out, "error_kind", errorKind(err))
		}
	}
	return out
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, gocron.ErrJobNotFound):
		return "job_not_found"
	case errors.Is(err, gocron.ErrCronJobParse), errors.Is(err, gocron.ErrCronJobInvalid):
		return "invalid_schedule"
	case errors.Is(err, gocron.ErrStopSchedulerTimedOut):
		return "shutdown_timeout"
	default:
		return ""
	}
}

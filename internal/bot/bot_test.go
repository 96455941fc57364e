package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/linerelay/internal/bot/tasks"
	"github.com/edgard/linerelay/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeServer struct {
	err     error
	started chan struct{}
}

func (s *fakeServer) Run(ctx context.Context) error {
	close(s.started)
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func noopTasks() map[string]tasks.ScheduledTaskFunc {
	return map[string]tasks.ScheduledTaskFunc{
		config.UsageReportTask: func(context.Context) error { return nil },
	}
}

func TestNewSchedulerRegistersEnabledTasks(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		config.UsageReportTask: {Enabled: true, Schedule: "0 0 9 * * *"},
		"unknown":              {Enabled: true, Schedule: "0 0 9 * * *"},
		"disabled":             {Enabled: false},
	}}

	s, err := NewScheduler(discardLogger(), cfg, noopTasks(), time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{config.UsageReportTask}, s.JobNames())
	assert.Error(t, s.Start())
}

func TestSchedulerInvalidCron(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		config.UsageReportTask: {Enabled: true, Schedule: "every day please"},
	}}

	s, err := NewScheduler(discardLogger(), cfg, noopTasks(), nil)
	require.NoError(t, err)
	err = s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.UsageReportTask)
	assert.NoError(t, s.Stop())
}

func TestSchedulerRunsTask(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick": {Enabled: true, Schedule: "* * * * * *"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error {
			runs.Add(1)
			return errors.New("logged, not fatal")
		},
	}

	s, err := NewScheduler(discardLogger(), cfg, taskMap, time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.NoError(t, s.Stop())
}

func TestBotRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), &config.SchedulerConfig{}, nil, time.UTC)
	require.NoError(t, err)
	srv := &fakeServer{started: make(chan struct{})}
	b := NewBot(discardLogger(), srv, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBotRunServerFailure(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), &config.SchedulerConfig{}, nil, time.UTC)
	require.NoError(t, err)
	srv := &fakeServer{started: make(chan struct{}), err: errors.New("address in use")}

	err = NewBot(discardLogger(), srv, s).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
	"github.com/edgard/linerelay/internal/resilience"
)

// breakerClient fails fast while the provider keeps failing, so events get
// their fallback reply without waiting for another timeout.
type breakerClient struct {
	next    Client
	breaker *resilience.CircuitBreaker
}

func withBreaker(next Client, cfg config.BreakerConfig, log *slog.Logger) Client {
	if cfg.MaxFailures <= 0 {
		return next
	}
	return &breakerClient{
		next: next,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        next.Provider() + "_completion",
			MaxFailures: cfg.MaxFailures,
			OpenTimeout: cfg.OpenTimeout,
			Logger:      log,
		}),
	}
}

func (c *breakerClient) Provider() string { return c.next.Provider() }

func (c *breakerClient) Complete(ctx context.Context, prompt string) (string, error) {
	var reply string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		reply, err = c.next.Complete(ctx, prompt)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "", relayerr.Upstream(c.next.Provider()+".circuit", err)
	}
	return reply, err
}

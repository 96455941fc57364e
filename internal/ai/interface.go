// Package ai provides interfaces and implementations for interacting with different AI backends.
package ai

import "context"

// Client generates one reply for one user prompt. The system instruction,
// model, output token cap and temperature are fixed when the client is built.
type Client interface {
	// Complete returns the generated reply text. An empty reply is an error.
	Complete(ctx context.Context, prompt string) (string, error)

	// Provider names the backend, e.g. "openai" or "gemini".
	Provider() string
}

// Package relayerr defines the error kinds shared across the relay.
// Callers match them with errors.Is; the concrete types carry the failing
// operation for logging.
package relayerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a required setting that is absent or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream marks a failed call to the completion, messaging or usage API.
	ErrUpstream = errors.New("upstream call failed")
)

// UpstreamError wraps a failed outbound call with the name of the operation.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrUpstream.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports ErrUpstream as a match so callers do not need errors.As.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Upstream tags err as an upstream failure of op. A nil err stays nil.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

// Configuration returns an ErrConfiguration with a formatted detail.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Op returns the operation name of an upstream failure, or "" for other errors.
func Op(err error) string {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Op
	}
	return ""
}

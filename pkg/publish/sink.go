// Package publish forwards posture events and status snapshots to external
// systems. Sinks are called from the frame goroutine; each call is bounded by
// a timeout and failures are logged, never fatal.
package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/teslashibe/go-posture/pkg/protocol"
)

// Sink receives events and status snapshots
type Sink interface {
	PublishEvent(ctx context.Context, e protocol.EventData) error
	PublishStatus(ctx context.Context, st protocol.StatusData) error
}

// DefaultTimeout bounds a single sink call
const DefaultTimeout = 500 * time.Millisecond

// Named attaches a name to a sink for logging
type Named struct {
	Name string
	Sink
}

// Multi fans out to several sinks
type Multi struct {
	sinks   []Named
	timeout time.Duration
	logger  *slog.Logger
}

// NewMulti creates a fan-out over sinks
func NewMulti(timeout time.Duration, logger *slog.Logger, sinks ...Named) *Multi {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{sinks: sinks, timeout: timeout, logger: logger}
}

// Add appends a sink
func (m *Multi) Add(name string, s Sink) {
	m.sinks = append(m.sinks, Named{Name: name, Sink: s})
}

// Len returns the number of sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// PublishEvent sends e to every sink and joins the errors
func (m *Multi) PublishEvent(ctx context.Context, e protocol.EventData) error {
	return m.each(ctx, "event", func(ctx context.Context, s Sink) error {
		return s.PublishEvent(ctx, e)
	})
}

// PublishStatus sends st to every sink and joins the errors
func (m *Multi) PublishStatus(ctx context.Context, st protocol.StatusData) error {
	return m.each(ctx, "status", func(ctx context.Context, s Sink) error {
		return s.PublishStatus(ctx, st)
	})
}

func (m *Multi) each(ctx context.Context, what string, fn func(context.Context, Sink) error) error {
	var errs []error
	for _, n := range m.sinks {
		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := fn(callCtx, n.Sink)
		cancel()
		if err != nil {
			m.logger.Warn("publish failed", "sink", n.Name, "kind", what, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that implements io.Closer
func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.sinks {
		if c, ok := n.Sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

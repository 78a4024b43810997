package audio

import (
	"context"
	"sync"
	"time"
)

// Mock implements Player for testing.
type Mock struct {
	// PlayFunc is called when Play is invoked.
	// If nil, Play waits for Duration or until ctx is done.
	PlayFunc func(ctx context.Context, clip Clip) error

	// Duration is the simulated clip length when PlayFunc is nil.
	Duration time.Duration

	mu       sync.Mutex
	calls    []MockCall
	playing  int
	finished int
}

// MockCall records a Play invocation.
type MockCall struct {
	Clip Clip
	Time time.Time
}

// NewMock creates a mock whose clips last d.
func NewMock(d time.Duration) *Mock {
	return &Mock{Duration: d}
}

// Play implements Player.
func (m *Mock) Play(ctx context.Context, clip Clip) error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Clip: clip, Time: time.Now()})
	m.playing++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.playing--
		m.finished++
		m.mu.Unlock()
	}()

	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, clip)
	}

	timer := time.NewTimer(m.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Calls returns a copy of all Play invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many times clip was played.
func (m *Mock) CallCount(clip Clip) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Clip == clip {
			n++
		}
	}
	return n
}

// Playing returns the number of Play calls in progress.
func (m *Mock) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Finished returns the number of completed Play calls.
func (m *Mock) Finished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

// Package alert runs the repeating alarm that plays while posture is bad or
// the user has been sitting too long.
//
// Cancellation is cooperative: the loop checks for a stop request only
// between repetitions, so Stop returns once the clip in progress has
// finished. A playback call that never returns stalls Stop with it.
package alert

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posture/pkg/audio"
)

// Config holds alarm loop settings.
type Config struct {
	Clip       audio.Clip    // Clip repeated while the alarm is active
	RetryDelay time.Duration // Pause after a failed playback before trying again
	MinPeriod  time.Duration // Shortest time between the starts of two repetitions
	Logger     *slog.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Config)

// WithClip sets the repeated clip.
func WithClip(clip audio.Clip) Option {
	return func(c *Config) {
		c.Clip = clip
	}
}

// WithRetryDelay sets the pause after a playback failure.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithMinPeriod sets the shortest interval between repetitions. A player
// that returns early, such as audio.Silent, is held to this pace.
func WithMinPeriod(d time.Duration) Option {
	return func(c *Config) {
		c.MinPeriod = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default alarm settings.
func DefaultConfig() Config {
	return Config{
		Clip:       audio.ClipAlarm,
		RetryDelay: 500 * time.Millisecond,
		MinPeriod:  250 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Stats reports alarm loop activity.
type Stats struct {
	Active   bool  `json:"active"`
	Runs     int64 `json:"runs"`     // Times the loop was started
	Plays    int64 `json:"plays"`    // Completed repetitions
	Failures int64 `json:"failures"` // Failed playback attempts
}

// Controller owns the alarm loop goroutine.
// Start and Stop must be called from a single goroutine; Active and Stats
// may be read from anywhere.
type Controller struct {
	player audio.Player
	cfg    Config

	mu     sync.Mutex
	active atomic.Bool
	stop   chan struct{}
	done   chan struct{}

	runs     atomic.Int64
	plays    atomic.Int64
	failures atomic.Int64
}

// New creates an idle controller playing through player.
func New(player audio.Player, opts ...Option) *Controller {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{player: player, cfg: cfg}
}

// Start launches the loop. It returns false if the loop was already running.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active.Load() {
		return false
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.active.Store(true)
	c.runs.Add(1)

	go c.loop(c.stop, c.done)
	return true
}

// Stop asks the loop to finish and waits for the current repetition to end.
// It returns false if the loop was not running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active.Load() {
		return false
	}
	close(c.stop)
	<-c.done
	c.active.Store(false)
	c.stop, c.done = nil, nil
	return true
}

// Active reports whether the loop is running.
func (c *Controller) Active() bool {
	return c.active.Load()
}

// Stats returns a snapshot of loop activity.
func (c *Controller) Stats() Stats {
	return Stats{
		Active:   c.active.Load(),
		Runs:     c.runs.Load(),
		Plays:    c.plays.Load(),
		Failures: c.failures.Load(),
	}
}

// Close stops the loop if it is running.
func (c *Controller) Close() {
	c.Stop()
}

func (c *Controller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		started := time.Now()
		// Not cancelled by Stop: the clip always plays to the end.
		if err := c.player.Play(context.Background(), c.cfg.Clip); err != nil {
			c.failures.Add(1)
			c.cfg.Logger.Warn("alarm playback failed", "clip", c.cfg.Clip, "error", err)
			if !wait(stop, c.cfg.RetryDelay) {
				return
			}
			continue
		}
		c.plays.Add(1)

		if !wait(stop, c.cfg.MinPeriod-time.Since(started)) {
			return
		}
	}
}

// wait sleeps for d unless stop closes first. It reports false on stop.
func wait(stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

package posture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// Config holds the classification thresholds and session timing.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Classification
	VisibilityThreshold float64 // Minimum landmark visibility for an angle to count
	PostureThreshold    float64 // Nose-shoulder-hip angle below this is bad posture (degrees)
	StandThreshold      float64 // Knee-hip-shoulder angle at or above this is standing (degrees)

	// Debounce
	DebounceFrames    int           // Consecutive bad frames before a detection
	DetectionCooldown time.Duration // Minimum gap between detections

	// Timers
	StandUpGrace time.Duration // Posture checks paused for this long after standing up
	SitLimit     time.Duration // Continuous sitting before the stretch reminder

	// Alerts
	MaxBadPosture int // Detections before the alarm loop starts

	// Debug enables the alert invariant check on every frame.
	Debug bool

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the Processor.
type Option func(*Config)

// WithVisibilityThreshold sets the minimum landmark visibility.
func WithVisibilityThreshold(v float64) Option {
	return func(c *Config) {
		c.VisibilityThreshold = v
	}
}

// WithPostureThreshold sets the bad-posture angle.
func WithPostureThreshold(deg float64) Option {
	return func(c *Config) {
		c.PostureThreshold = deg
	}
}

// WithStandThreshold sets the standing angle.
func WithStandThreshold(deg float64) Option {
	return func(c *Config) {
		c.StandThreshold = deg
	}
}

// WithDebounce sets the consecutive frame count and cooldown for detections.
func WithDebounce(frames int, cooldown time.Duration) Option {
	return func(c *Config) {
		c.DebounceFrames = frames
		c.DetectionCooldown = cooldown
	}
}

// WithStandUpGrace sets how long posture checks pause after standing up.
func WithStandUpGrace(d time.Duration) Option {
	return func(c *Config) {
		c.StandUpGrace = d
	}
}

// WithSitLimit sets the continuous sitting time before a stretch reminder.
func WithSitLimit(d time.Duration) Option {
	return func(c *Config) {
		c.SitLimit = d
	}
}

// WithMaxBadPosture sets the detection count that raises the alarm loop.
func WithMaxBadPosture(n int) Option {
	return func(c *Config) {
		c.MaxBadPosture = n
	}
}

// WithDebug enables the per-frame alert invariant check.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		c.Debug = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the thresholds the checker was tuned with.
func DefaultConfig() *Config {
	return &Config{
		VisibilityThreshold: pose.DefaultVisibility,
		PostureThreshold:    130,
		StandThreshold:      170,
		DebounceFrames:      3,
		DetectionCooldown:   5 * time.Second,
		StandUpGrace:        10 * time.Second,
		SitLimit:            time.Hour,
		MaxBadPosture:       3,
		Logger:              slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that every parameter is usable.
func (c *Config) Validate() error {
	if c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1 {
		return fmt.Errorf("%w: visibility %v not in [0,1]", ErrInvalidThreshold, c.VisibilityThreshold)
	}
	if c.PostureThreshold <= 0 || c.PostureThreshold > 180 {
		return fmt.Errorf("%w: posture angle %v not in (0,180]", ErrInvalidThreshold, c.PostureThreshold)
	}
	if c.StandThreshold <= 0 || c.StandThreshold > 180 {
		return fmt.Errorf("%w: stand angle %v not in (0,180]", ErrInvalidThreshold, c.StandThreshold)
	}
	if c.DebounceFrames < 1 {
		return fmt.Errorf("%w: debounce frames %d", ErrInvalidCount, c.DebounceFrames)
	}
	if c.MaxBadPosture < 1 {
		return fmt.Errorf("%w: max bad posture %d", ErrInvalidCount, c.MaxBadPosture)
	}
	if c.DetectionCooldown < 0 || c.StandUpGrace < 0 || c.SitLimit < 0 {
		return ErrInvalidDuration
	}
	return nil
}

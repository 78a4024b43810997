// Package monitor is the posture monitoring application. It wires pose
// ingestion to a single frame goroutine that drives the posture processor,
// plays cues and the alarm, and publishes events to dashboards and sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/alert"
	"github.com/teslashibe/go-posture/pkg/audio"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/publish"
	"github.com/teslashibe/go-posture/pkg/web"
)

const (
	// frameBuffer is how many frames may wait for the frame goroutine
	frameBuffer = 64

	// cueBuffer is how many one-shot cues may wait for playback
	cueBuffer = 8

	// statusInterval throttles status publishing when nothing changes
	statusInterval = time.Second
)

// Option configures an App
type Option func(*App)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithPlayer replaces the player chosen from settings
func WithPlayer(p audio.Player) Option {
	return func(a *App) {
		a.player = p
	}
}

// WithSink adds an event sink in addition to those configured in settings
func WithSink(name string, s publish.Sink) Option {
	return func(a *App) {
		a.extraSinks = append(a.extraSinks, publish.Named{Name: name, Sink: s})
	}
}

// WithoutWeb disables the HTTP server
func WithoutWeb() Option {
	return func(a *App) {
		a.noWeb = true
	}
}

// WithSessionID fixes the session id instead of generating one
func WithSessionID(id string) Option {
	return func(a *App) {
		a.sessionID = id
	}
}

// App is the posture monitor orchestrator.
// It manages all components and their lifecycle.
type App struct {
	cfg       config.Settings
	logger    *slog.Logger
	sessionID string

	// Core
	processor *posture.Processor
	alarm     *alert.Controller
	player    audio.Player
	cues      *audio.CueQueue

	// Outputs
	webServer  *web.Server
	sinks      *publish.Multi
	extraSinks []publish.Named
	noWeb      bool

	// Frame goroutine state
	frames        chan posture.Frame
	lastFrame     posture.Frame
	lastReceived  time.Time
	stale         bool
	display       map[posture.Display]string
	lastStatusAt  time.Time
	lastStatusKey string

	dropped   atomic.Uint64
	processed atomic.Uint64
}

// New creates a new monitor with the given settings.
func New(cfg config.Settings, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		logger:  slog.Default(),
		frames:  make(chan posture.Frame, frameBuffer),
		display: make(map[posture.Display]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sessionID == "" {
		a.sessionID = uuid.New().String()
	}
	a.logger = a.logger.With("session", a.sessionID)
	return a, nil
}

// SessionID returns the id attached to every published event
func (a *App) SessionID() string {
	return a.sessionID
}

// Init builds all components. Unreachable sinks are logged and skipped.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	if a.player == nil {
		p, err := a.newPlayer()
		if err != nil {
			return fmt.Errorf("audio init: %w", err)
		}
		a.player = p
	}

	a.alarm = alert.New(a.player, alert.WithLogger(a.logger.With("component", "alarm")))
	a.cues = audio.NewCueQueue(a.player, cueBuffer, a.logger.With("component", "cues"))

	proc, err := posture.New(a.alarm,
		posture.WithVisibilityThreshold(a.cfg.VisibilityThreshold),
		posture.WithPostureThreshold(a.cfg.PostureThreshold),
		posture.WithStandThreshold(a.cfg.StandThreshold),
		posture.WithSitLimit(a.cfg.SitLimit),
		posture.WithDebug(a.cfg.Debug),
		posture.WithLogger(a.logger.With("component", "posture")),
	)
	if err != nil {
		return fmt.Errorf("posture init: %w", err)
	}
	a.processor = proc

	a.sinks = publish.NewMulti(publish.DefaultTimeout, a.logger.With("component", "publish"))
	if !a.noWeb {
		a.webServer = web.NewServer(a.cfg.Port,
			web.WithLogger(a.logger),
			web.WithSettings(a.settingsView()),
		)
		a.webServer.OnPose = a.onPose
		a.sinks.Add("web", a.webServer)
	}
	a.initSinks(ctx)
	for _, s := range a.extraSinks {
		a.sinks.Add(s.Name, s.Sink)
	}

	a.logger.Info("posture monitor initialized",
		"player", a.cfg.Player,
		"sinks", a.sinks.Len(),
		"frame_timeout", a.cfg.FrameTimeout,
	)
	return nil
}

func (a *App) newPlayer() (audio.Player, error) {
	lib := audio.NewLibrary(a.cfg.SoundDir)
	switch a.cfg.Player {
	case config.PlayerLocal:
		return audio.NewCommandPlayer(lib, ""), nil
	case config.PlayerRobot:
		return audio.NewRobotPlayer(lib, a.cfg.RobotIP, a.cfg.SSHUser, a.cfg.SSHPass), nil
	case config.PlayerNone:
		return audio.Silent{}, nil
	}
	return nil, fmt.Errorf("%w: player %q", config.ErrInvalidSetting, a.cfg.Player)
}

func (a *App) initSinks(ctx context.Context) {
	if a.cfg.RedisAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rs, err := publish.DialRedis(dialCtx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		cancel()
		if err != nil {
			a.logger.Warn("redis sink disabled", "addr", a.cfg.RedisAddr, "error", err)
		} else {
			a.sinks.Add("redis", rs)
			a.logger.Info("redis sink enabled", "addr", a.cfg.RedisAddr, "stream", publish.DefaultStream)
		}
	}

	if a.cfg.MQTTBroker != "" {
		ms, err := publish.DialMQTT(publish.MQTTConfig{
			Broker:      a.cfg.MQTTBroker,
			ClientID:    a.cfg.MQTTClientID + "-" + shortID(a.sessionID),
			Username:    a.cfg.MQTTUsername,
			Password:    a.cfg.MQTTPassword,
			TopicPrefix: a.cfg.MQTTTopicPrefix,
			QoS:         1,
		})
		if err != nil {
			a.logger.Warn("mqtt sink disabled", "broker", a.cfg.MQTTBroker, "error", err)
		} else {
			a.sinks.Add("mqtt", ms)
			a.logger.Info("mqtt sink enabled", "broker", a.cfg.MQTTBroker)
		}
	}
}

// settingsView is what /api/config exposes; credentials are left out.
func (a *App) settingsView() map[string]interface{} {
	pc := posture.DefaultConfig()
	return map[string]interface{}{
		"session_id":           a.sessionID,
		"player":               a.cfg.Player,
		"visibility_threshold": a.cfg.VisibilityThreshold,
		"posture_threshold":    a.cfg.PostureThreshold,
		"stand_threshold":      a.cfg.StandThreshold,
		"sit_limit_seconds":    a.cfg.SitLimit.Seconds(),
		"debounce_frames":      pc.DebounceFrames,
		"detection_cooldown":   pc.DetectionCooldown.Seconds(),
		"stand_up_grace":       pc.StandUpGrace.Seconds(),
		"max_bad_posture":      pc.MaxBadPosture,
		"frame_timeout":        a.cfg.FrameTimeout.Seconds(),
		"redis_enabled":        a.cfg.RedisAddr != "",
		"mqtt_enabled":         a.cfg.MQTTBroker != "",
	}
}

// Run serves HTTP and processes frames until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.processor == nil {
		return errors.New("monitor: Run called before Init")
	}

	if a.webServer != nil {
		go func() {
			if err := a.webServer.Start(ctx); err != nil {
				a.logger.Error("web server error", "error", err)
			}
		}()
	}

	a.logger.Info("posture monitor running")
	return a.loop(ctx)
}

// Shutdown stops the alarm and releases all components.
func (a *App) Shutdown() {
	if a.processor != nil {
		a.processor.Close()
	}
	if a.cues != nil {
		a.cues.Close()
	}
	if a.sinks != nil {
		if err := a.sinks.Close(); err != nil {
			a.logger.Warn("closing sinks", "error", err)
		}
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
	a.logger.Info("posture monitor stopped",
		"frames", a.processed.Load(),
		"dropped", a.dropped.Load(),
	)
}

// Package posture turns a stream of pose snapshots into posture classifications,
// session timers and alert decisions.
//
// A Processor is driven by a single goroutine, one frame at a time. The alarm
// loop it controls runs on its own goroutine (see package alert); Process blocks
// on stopping it for at most one clip.
package posture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// AlertLoop is the repeating alarm controlled by the processor.
// Start and Stop report whether they changed the state.
type AlertLoop interface {
	Start() bool
	Stop() bool
	Active() bool
}

// Frame is one input sample. A nil Snapshot means nobody was detected.
type Frame struct {
	ID       uint64
	Snapshot *pose.Snapshot
	At       time.Time
}

// Result is the outcome of processing one frame.
type Result struct {
	Detected bool         `json:"detected"`
	Reading  Reading      `json:"reading"`
	State    SessionState `json:"state"`
	Events   []Event      `json:"events"`
}

// HasCue reports whether the frame emitted cue.
func (r Result) HasCue(cue Cue) bool {
	for _, e := range r.Events {
		if e.Kind == KindSound && e.Cue == cue {
			return true
		}
	}
	return false
}

// Text returns the text of display slot d, if emitted.
func (r Result) Text(d Display) (string, bool) {
	for _, e := range r.Events {
		if e.Kind == KindDisplay && e.Display == d {
			return e.Text, true
		}
	}
	return "", false
}

// HasNotice reports whether the frame emitted notice n.
func (r Result) HasNotice(n Notice) bool {
	for _, e := range r.Events {
		if e.Kind == KindNotice && e.Notice == n {
			return true
		}
	}
	return false
}

// Processor owns a SessionState and advances it frame by frame.
// It is not safe for concurrent use.
type Processor struct {
	cfg    *Config
	timers Timers
	alarm  AlertLoop
	logger *slog.Logger
	state  SessionState
}

// New creates a processor driving alarm. A nil alarm keeps only the flag.
func New(alarm AlertLoop, opts ...Option) (*Processor, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if alarm == nil {
		alarm = &flagLoop{}
	}
	return &Processor{
		cfg:    cfg,
		timers: NewTimers(cfg),
		alarm:  alarm,
		logger: cfg.Logger,
	}, nil
}

// Config returns a copy of the active configuration.
func (p *Processor) Config() Config {
	return *p.cfg
}

// State returns a copy of the session state.
func (p *Processor) State() SessionState {
	return p.state
}

// Process advances the session by one frame observed at now.
// A nil snapshot means no person was detected.
func (p *Processor) Process(snap *pose.Snapshot, now time.Time) Result {
	if snap == nil {
		return p.processAbsent(now)
	}

	r := Classify(snap, p.cfg)
	events := p.timers.Update(&p.state, r, now)
	for _, e := range events {
		p.logEvent(e)
	}

	overLimit := p.state.BadPostureCount >= p.cfg.MaxBadPosture
	if overLimit {
		events = append(events, displayEvent(DisplayAlert, "PLEASE STRETCH", now))
	}

	cond := p.state.alertCondition(r, now, p.cfg)
	if !p.state.AlertActive && cond && overLimit {
		msg := fmt.Sprintf("Bad posture detected %d times, please sit up straight", p.state.BadPostureCount)
		p.logger.Warn(msg, "count", p.state.BadPostureCount)
		events = append(events, noticeEvent(NoticeAlert, msg, now))
	}
	events = append(events, p.reconcile(cond, now)...)

	events = append(events,
		displayEvent(DisplaySitAngle, angleText(r.Side, 1, r.SitAngle), now),
		displayEvent(DisplayStandAngle, angleText(r.Side, 2, r.StandAngle), now),
		p.timerEvent(now),
	)

	p.state.PrevIsStanding = r.IsStanding
	return Result{Detected: true, Reading: r, State: p.state, Events: events}
}

// ProcessFrame is Process for a Frame.
func (p *Processor) ProcessFrame(f Frame) Result {
	return p.Process(f.Snapshot, f.At)
}

// processAbsent resets the temporal counters and silences the alarm.
func (p *Processor) processAbsent(now time.Time) Result {
	p.timers.Reset(&p.state)

	var events []Event
	events = append(events, displayEvent(DisplayNoDetection, "No detection", now))
	if p.alarm.Stop() {
		events = append(events, soundEvent(CueAlertLoopStop, now))
		p.logger.Info("alarm loop stopped", "reason", "no detection")
	}
	p.state.AlertActive = p.alarm.Active()
	events = append(events, p.timerEvent(now))

	return Result{Detected: false, State: p.state, Events: events}
}

// reconcile starts or stops the alarm loop to match cond.
func (p *Processor) reconcile(cond bool, now time.Time) []Event {
	var events []Event
	switch {
	case cond && !p.alarm.Active():
		if p.alarm.Start() {
			events = append(events, soundEvent(CueAlertLoopStart, now))
			p.logger.Info("alarm loop started", "bad_posture_count", p.state.BadPostureCount)
		}
	case !cond && p.alarm.Active():
		if p.alarm.Stop() {
			events = append(events, soundEvent(CueAlertLoopStop, now))
			p.logger.Info("alarm loop stopped", "reason", "condition cleared")
		}
	}
	p.state.AlertActive = p.alarm.Active()

	if p.cfg.Debug && p.state.AlertActive != cond {
		p.logger.Error("posture: alert invariant violated",
			"alert_active", p.state.AlertActive, "condition", cond)
	}
	return events
}

func (p *Processor) timerEvent(now time.Time) Event {
	if p.state.SittingStartTime.IsZero() {
		return displayEvent(DisplayTimer, "Standing 00:00:00", now)
	}
	return displayEvent(DisplayTimer, "Sitting "+FormatHMS(p.state.SittingFor(now)), now)
}

func (p *Processor) logEvent(e Event) {
	switch e.Kind {
	case KindNotice:
		p.logger.Info(e.Text, "notice", e.Notice)
	case KindSound:
		p.logger.Debug("cue", "cue", e.Cue, "bad_posture_count", p.state.BadPostureCount)
	}
}

// Close silences the alarm loop at session teardown.
func (p *Processor) Close() {
	p.alarm.Stop()
	p.state.AlertActive = p.alarm.Active()
}

func angleText(side pose.Side, n int, a pose.JointAngle) string {
	if !a.Known {
		return fmt.Sprintf("%s-deg%d:N/A", side.Initial(), n)
	}
	return fmt.Sprintf("%s-deg%d:%d", side.Initial(), n, int(a.Degrees))
}

// flagLoop is an AlertLoop without audio.
type flagLoop struct {
	active bool
}

func (f *flagLoop) Start() bool {
	if f.active {
		return false
	}
	f.active = true
	return true
}

func (f *flagLoop) Stop() bool {
	if !f.active {
		return false
	}
	f.active = false
	return true
}

func (f *flagLoop) Active() bool { return f.active }

package monitor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/audio"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/pose/posetest"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return t0.Add(time.Duration(sec * float64(time.Second)))
}

// memorySink records everything published to it.
type memorySink struct {
	mu       sync.Mutex
	events   []protocol.EventData
	statuses []protocol.StatusData
}

func (m *memorySink) PublishEvent(_ context.Context, e protocol.EventData) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	return nil
}

func (m *memorySink) PublishStatus(_ context.Context, st protocol.StatusData) error {
	m.mu.Lock()
	m.statuses = append(m.statuses, st)
	m.mu.Unlock()
	return nil
}

func (m *memorySink) count(match func(protocol.EventData) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if match(e) {
			n++
		}
	}
	return n
}

func (m *memorySink) statusCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.statuses)
}

func isCue(cue string) func(protocol.EventData) bool {
	return func(e protocol.EventData) bool { return e.Kind == "sound" && e.Cue == cue }
}

func isDisplay(d string) func(protocol.EventData) bool {
	return func(e protocol.EventData) bool { return e.Kind == "display" && e.Display == d }
}

func testSettings() config.Settings {
	s := config.Defaults()
	s.Player = config.PlayerNone
	s.FrameTimeout = 0
	return s
}

func newTestApp(t *testing.T, s config.Settings, player audio.Player) (*App, *memorySink) {
	t.Helper()
	sink := &memorySink{}
	app, err := New(s,
		WithoutWeb(),
		WithPlayer(player),
		WithSink("memory", sink),
		WithSessionID("test-session"),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app, sink
}

func waitPlayed(t *testing.T, mock *audio.Mock, clip audio.Clip) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for mock.CallCount(clip) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("clip %s never played", clip)
		}
		time.Sleep(time.Millisecond)
	}
}

func frame(id uint64, snap *pose.Snapshot, sec float64) posture.Frame {
	return posture.Frame{ID: id, Snapshot: snap, At: at(sec)}
}

func TestNew_InvalidSettings(t *testing.T) {
	s := testSettings()
	s.Player = "bluetooth"
	if _, err := New(s); !errors.Is(err, config.ErrInvalidSetting) {
		t.Errorf("New() error = %v, want ErrInvalidSetting", err)
	}
}

func TestNew_GeneratesSessionID(t *testing.T) {
	a, err := New(testSettings())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, _ := New(testSettings())
	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Errorf("session ids %q and %q should be unique and non-empty", a.SessionID(), b.SessionID())
	}
}

func TestRun_BeforeInit(t *testing.T) {
	a, _ := New(testSettings(), WithoutWeb())
	if err := a.Run(context.Background()); err == nil {
		t.Error("Run() before Init should fail")
	}
}

func TestProcessFrame_BadPostureCue(t *testing.T) {
	mock := audio.NewMock(time.Millisecond)
	app, sink := newTestApp(t, testSettings(), mock)
	ctx := context.Background()

	// Debounce needs three consecutive bad frames.
	var res posture.Result
	for i, sec := range []float64{0, 0.1, 0.2} {
		res = app.ProcessFrame(ctx, frame(uint64(i), posetest.BadSit(), sec))
	}
	if !res.HasCue(posture.CueBadPosture) {
		t.Fatal("third bad frame should emit the bad posture cue")
	}
	if got := sink.count(isCue("BAD_POSTURE_SHORT")); got != 1 {
		t.Errorf("published BAD_POSTURE_SHORT %d times, want 1", got)
	}

	waitPlayed(t, mock, audio.ClipBadPosture)
	if got := mock.CallCount(audio.ClipBadPosture); got != 1 {
		t.Errorf("bad posture clip played %d times, want 1", got)
	}
}

func TestProcessFrame_AlarmLoop(t *testing.T) {
	mock := audio.NewMock(5 * time.Millisecond)
	app, sink := newTestApp(t, testSettings(), mock)
	ctx := context.Background()

	// Three debounced detections, 5s cooldown apart.
	sec := 0.0
	for n := 0; n < 3; n++ {
		for i := 0; i < 3; i++ {
			app.ProcessFrame(ctx, frame(0, posetest.BadSit(), sec))
			sec += 0.1
		}
		sec += 5
	}

	if !app.alarm.Active() {
		t.Fatal("alarm should be running after three detections")
	}
	if got := sink.count(isCue("ALERT_LOOP_START")); got != 1 {
		t.Errorf("ALERT_LOOP_START published %d times, want 1", got)
	}

	waitPlayed(t, mock, audio.ClipAlarm)

	res := app.ProcessFrame(ctx, frame(0, posetest.Standing(), sec))
	if !res.HasCue(posture.CueAlertLoopStop) {
		t.Error("standing up should stop the alarm loop")
	}
	if app.alarm.Active() {
		t.Error("alarm still active after stand-up")
	}
	waitPlayed(t, mock, audio.ClipStandUp)
}

func TestProcessFrame_DisplayDeduplicated(t *testing.T) {
	app, sink := newTestApp(t, testSettings(), audio.Silent{})
	ctx := context.Background()

	app.ProcessFrame(ctx, frame(1, posetest.GoodSit(), 0))
	app.ProcessFrame(ctx, frame(2, posetest.GoodSit(), 0.1))

	if got := sink.count(isDisplay("good_posture")); got != 1 {
		t.Errorf("good_posture published %d times, want 1", got)
	}
	if got := sink.count(isDisplay("sit_angle")); got != 1 {
		t.Errorf("sit_angle published %d times, want 1 for identical readings", got)
	}
}

func TestProcessFrame_StatusThrottled(t *testing.T) {
	app, sink := newTestApp(t, testSettings(), audio.Silent{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		app.ProcessFrame(ctx, frame(uint64(i), posetest.GoodSit(), 0.05*float64(i)))
	}
	if got := sink.statusCount(); got != 1 {
		t.Errorf("published %d statuses in half a second of unchanged state, want 1", got)
	}

	app.ProcessFrame(ctx, frame(10, nil, 0.55))
	if got := sink.statusCount(); got != 2 {
		t.Errorf("state change should publish immediately, got %d statuses", got)
	}
}

func TestProcessFrame_ClampsBackwardsTime(t *testing.T) {
	app, _ := newTestApp(t, testSettings(), audio.Silent{})
	ctx := context.Background()

	app.ProcessFrame(ctx, frame(1, posetest.GoodSit(), 10))
	res := app.ProcessFrame(ctx, frame(2, posetest.GoodSit(), 5))

	if got := res.State.SittingStartTime; !got.Equal(at(10)) {
		t.Errorf("SittingStartTime = %v, want %v", got, at(10))
	}
	if !app.lastFrame.At.Equal(at(10)) {
		t.Errorf("frame time clamped to %v, want %v", app.lastFrame.At, at(10))
	}
}

func TestRun_ProcessesSubmittedFrames(t *testing.T) {
	app, sink := newTestApp(t, testSettings(), audio.Silent{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	for i := 0; i < 3; i++ {
		if !app.Submit(frame(uint64(i), posetest.BadSit(), 0.1*float64(i))) {
			t.Fatal("Submit() dropped a frame on an empty queue")
		}
	}

	deadline := time.Now().Add(time.Second)
	for app.Stats().Processed < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := app.Stats().Processed; got != 3 {
		t.Fatalf("Processed = %d, want 3", got)
	}
	if sink.count(isCue("BAD_POSTURE_SHORT")) != 1 {
		t.Error("bad posture cue not published")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRun_StaleInputInjectsNoDetection(t *testing.T) {
	s := testSettings()
	s.FrameTimeout = 40 * time.Millisecond
	app, sink := newTestApp(t, s, audio.Silent{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	app.Submit(frame(1, posetest.GoodSit(), 0))

	deadline := time.Now().Add(2 * time.Second)
	for sink.count(isDisplay("no_detection")) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := sink.count(isDisplay("no_detection")); got != 1 {
		t.Fatalf("no_detection published %d times, want 1", got)
	}

	// Still silent: no second injection.
	time.Sleep(100 * time.Millisecond)
	if got := app.Stats().Processed; got != 2 {
		t.Errorf("Processed = %d, want 2 (one frame plus one injected)", got)
	}
}

func TestSubmit_DropsWhenFull(t *testing.T) {
	app, _ := newTestApp(t, testSettings(), audio.Silent{})

	for i := 0; i < frameBuffer; i++ {
		if !app.Submit(frame(uint64(i), nil, 0)) {
			t.Fatalf("frame %d dropped before the queue was full", i)
		}
	}
	if app.Submit(frame(999, nil, 0)) {
		t.Error("Submit() should drop when the queue is full")
	}
	if got := app.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestShutdown_StopsAlarm(t *testing.T) {
	mock := audio.NewMock(5 * time.Millisecond)
	sink := &memorySink{}
	app, err := New(testSettings(), WithoutWeb(), WithPlayer(mock), WithSink("memory", sink))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	app.alarm.Start()
	app.Shutdown()
	if app.alarm.Active() {
		t.Error("Shutdown should stop the alarm loop")
	}
}

func TestSettingsView_HidesCredentials(t *testing.T) {
	s := testSettings()
	s.SSHPass = "secret"
	s.RedisPassword = "secret"
	app, _ := New(s, WithoutWeb())

	for k, v := range app.settingsView() {
		if v == "secret" {
			t.Errorf("settings view exposes %s", k)
		}
	}
}

package audio

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestLibraryPath(t *testing.T) {
	lib := NewLibrary("sound")

	tests := []struct {
		clip Clip
		want string
	}{
		{ClipStandUp, filepath.Join("sound", "reset.wav")},
		{ClipBadPosture, filepath.Join("sound", "siren_short.wav")},
		{ClipAlarm, filepath.Join("sound", "siren_long.wav")},
	}
	for _, tt := range tests {
		got, err := lib.Path(tt.clip)
		if err != nil {
			t.Fatalf("Path(%s) error = %v", tt.clip, err)
		}
		if got != tt.want {
			t.Errorf("Path(%s) = %q, want %q", tt.clip, got, tt.want)
		}
	}

	if _, err := lib.Path("missing"); !errors.Is(err, ErrNoClip) {
		t.Errorf("Path(missing) error = %v, want ErrNoClip", err)
	}

	lib.Set(ClipAlarm, "/opt/sounds/loud.wav")
	if got, _ := lib.Path(ClipAlarm); got != "/opt/sounds/loud.wav" {
		t.Errorf("absolute override = %q", got)
	}
}

func TestCommandPlayerArgs(t *testing.T) {
	p := NewCommandPlayer(NewLibrary("."), "paplay", "--volume", "40000")
	got := p.commandArgs("x.wav")
	want := []string{"--volume", "40000", "x.wav"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commandArgs() = %v, want %v", got, want)
	}

	def := NewCommandPlayer(NewLibrary("."), "")
	if def.command == "" {
		t.Error("default command should be set")
	}
}

func TestCommandPlayerMissingClip(t *testing.T) {
	p := NewCommandPlayer(NewLibrary("."), "true")
	if err := p.Play(context.Background(), "nope"); !errors.Is(err, ErrNoClip) {
		t.Errorf("Play() error = %v, want ErrNoClip", err)
	}
}

func TestRobotPlayerArgs(t *testing.T) {
	p := NewRobotPlayer(NewLibrary("."), "192.168.68.80", "pollen", "root")
	args := p.sshArgs()
	if args[0] != "-p" || args[1] != "root" {
		t.Errorf("password args = %v", args[:2])
	}
	if args[5] != "pollen@192.168.68.80" {
		t.Errorf("target = %q", args[5])
	}
	if args[len(args)-1] != robotPipeline {
		t.Error("pipeline should be the last argument")
	}
}

func TestRobotPlayerMissingFile(t *testing.T) {
	p := NewRobotPlayer(NewLibrary(t.TempDir()), "127.0.0.1", "u", "p")
	if err := p.Play(context.Background(), ClipAlarm); err == nil {
		t.Error("expected error for missing clip file")
	}
}

func TestCueQueue_PlaysInOrder(t *testing.T) {
	mock := NewMock(time.Millisecond)
	q := NewCueQueue(mock, 8, nil)

	for _, c := range []Clip{ClipStandUp, ClipBadPosture, ClipStandUp} {
		if err := q.Enqueue(c); err != nil {
			t.Fatalf("Enqueue(%s) error = %v", c, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for mock.Finished() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	q.Close()

	calls := mock.Calls()
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	want := []Clip{ClipStandUp, ClipBadPosture, ClipStandUp}
	for i, c := range calls {
		if c.Clip != want[i] {
			t.Errorf("call %d = %s, want %s", i, c.Clip, want[i])
		}
	}
}

func TestCueQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	started := make(chan struct{})
	mock := &Mock{PlayFunc: func(ctx context.Context, clip Clip) error {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	q := NewCueQueue(mock, 1, nil)
	defer q.Close()

	if err := q.Enqueue(ClipStandUp); err != nil {
		t.Fatal(err)
	}
	<-started // worker holds the first cue

	if err := q.Enqueue(ClipBadPosture); err != nil {
		t.Fatalf("second cue should fit in the buffer: %v", err)
	}
	if err := q.Enqueue(ClipBadPosture); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() error = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestCueQueue_Close(t *testing.T) {
	mock := NewMock(time.Hour)
	q := NewCueQueue(mock, 4, nil)
	q.Enqueue(ClipAlarm)

	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close should cancel the clip in progress")
	}

	q.Close()
	if err := q.Enqueue(ClipStandUp); !errors.Is(err, ErrClosed) {
		t.Errorf("Enqueue after Close = %v, want ErrClosed", err)
	}
}

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-posture/pkg/audio"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

// cueClips maps one-shot cues to clips. Loop start and stop cues have no
// clip; the alarm controller plays the loop itself.
var cueClips = map[posture.Cue]audio.Clip{
	posture.CueStandUp:    audio.ClipStandUp,
	posture.CueBadPosture: audio.ClipBadPosture,
}

// onPose is the web ingestion callback
func (a *App) onPose(source string, msg *protocol.Message, data *protocol.PoseData) {
	a.Submit(posture.Frame{
		ID:       data.FrameID,
		Snapshot: data.Snapshot(),
		At:       msg.Time(time.Now()),
	})
}

// Submit queues a frame for the frame goroutine. It never blocks; when the
// queue is full the frame is dropped and false is returned.
func (a *App) Submit(f posture.Frame) bool {
	select {
	case a.frames <- f:
		return true
	default:
		if n := a.dropped.Add(1); n == 1 || n%100 == 0 {
			a.logger.Warn("frame queue full, dropping frames", "dropped", n)
		}
		return false
	}
}

// Stats reports frame counters
type Stats struct {
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns frame counters
func (a *App) Stats() Stats {
	return Stats{Processed: a.processed.Load(), Dropped: a.dropped.Load()}
}

// loop is the only goroutine that touches the processor.
func (a *App) loop(ctx context.Context) error {
	var tick <-chan time.Time
	if a.cfg.FrameTimeout > 0 {
		ticker := time.NewTicker(a.cfg.FrameTimeout / 4)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-a.frames:
			a.lastReceived = time.Now()
			a.stale = false
			a.ProcessFrame(ctx, f)
		case now := <-tick:
			a.checkStale(ctx, now)
		}
	}
}

// checkStale injects a no-detection frame once the detector has been silent
// for FrameTimeout.
func (a *App) checkStale(ctx context.Context, now time.Time) {
	if a.stale || a.lastReceived.IsZero() {
		return
	}
	silent := now.Sub(a.lastReceived)
	if silent < a.cfg.FrameTimeout {
		return
	}
	a.stale = true
	a.logger.Warn("pose input stale, treating as no detection", "silent", silent.Round(time.Millisecond))
	a.ProcessFrame(ctx, posture.Frame{
		ID: a.lastFrame.ID,
		At: a.lastFrame.At.Add(silent),
	})
}

// ProcessFrame runs one frame through the processor and dispatches the
// result. It must only be called from one goroutine at a time; Run does so
// from its frame loop.
func (a *App) ProcessFrame(ctx context.Context, f posture.Frame) posture.Result {
	if !a.lastFrame.At.IsZero() && f.At.Before(a.lastFrame.At) {
		a.logger.Debug("frame time went backwards, clamping",
			"frame", f.ID, "at", f.At, "previous", a.lastFrame.At)
		f.At = a.lastFrame.At
	}
	a.lastFrame = f

	res := a.processor.ProcessFrame(f)
	a.processed.Add(1)

	for _, e := range res.Events {
		if e.Kind == posture.KindSound {
			a.playCue(e.Cue)
		}
		if a.shouldPublish(e) {
			a.sinks.PublishEvent(ctx, protocol.EventFromPosture(a.sessionID, e))
		}
	}
	a.publishStatus(ctx, f, res)
	return res
}

func (a *App) playCue(cue posture.Cue) {
	clip, ok := cueClips[cue]
	if !ok {
		return
	}
	if err := a.cues.Enqueue(clip); err != nil {
		a.logger.Debug("cue not queued", "cue", cue, "error", err)
	}
}

// shouldPublish passes sounds and notices, and display events only when
// their text changed since the slot was last published.
func (a *App) shouldPublish(e posture.Event) bool {
	if e.Kind != posture.KindDisplay {
		return true
	}
	if prev, ok := a.display[e.Display]; ok && prev == e.Text {
		return false
	}
	a.display[e.Display] = e.Text
	return true
}

// publishStatus sends a status snapshot when the session changed or at
// least once per statusInterval.
func (a *App) publishStatus(ctx context.Context, f posture.Frame, res posture.Result) {
	st := protocol.StatusFromResult(a.sessionID, f.ID, res)
	key := statusKey(st)
	if key == a.lastStatusKey && f.At.Sub(a.lastStatusAt) < statusInterval {
		return
	}
	a.lastStatusKey = key
	a.lastStatusAt = f.At
	a.sinks.PublishStatus(ctx, st)
}

// statusKey summarizes the fields dashboards react to.
func statusKey(st protocol.StatusData) string {
	key := fmt.Sprintf("%t|%d|%d|%t|%t|%s",
		st.Detected, st.State.BadPostureCount, st.State.ConsecutiveBadPosture,
		st.State.AlertActive, st.State.StretchPrompted, st.Timer)
	if r := st.Reading; r != nil {
		key += fmt.Sprintf("|%s|%t|%t|%t", r.Side, r.IsStanding, r.IsSitting, r.IsBadPosture)
	}
	return key
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Package replay feeds recorded pose streams through the posture pipeline.
//
// A recording is JSON Lines: one protocol message per line, as received on
// /ws/pose. Non-pose messages and blank lines are skipped.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/protocol"
)

// DefaultFrameInterval stamps frames that carry no timestamp.
const DefaultFrameInterval = time.Second / 30

// maxLine bounds one recorded message; a full 33-landmark pose is ~3KB.
const maxLine = 1 << 20

// Reader decodes a recording frame by frame
type Reader struct {
	sc       *bufio.Scanner
	line     int
	interval time.Duration
	start    time.Time
	prev     time.Time
}

// NewReader creates a reader. Frames without a timestamp are placed
// DefaultFrameInterval after the previous frame, the first at start.
func NewReader(r io.Reader, start time.Time) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc, interval: DefaultFrameInterval, start: start}
}

// Line returns the line number of the last frame read
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next pose frame, or io.EOF at the end of the recording.
func (r *Reader) Next() (posture.Frame, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			return posture.Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if msg.Type != protocol.TypePose {
			continue
		}

		f, err := msg.Frame(r.nextDefault())
		if err != nil {
			return posture.Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		r.prev = f.At
		return f, nil
	}
	if err := r.sc.Err(); err != nil {
		return posture.Frame{}, err
	}
	return posture.Frame{}, io.EOF
}

func (r *Reader) nextDefault() time.Time {
	if r.prev.IsZero() {
		return r.start
	}
	return r.prev.Add(r.interval)
}

// Handler consumes one frame
type Handler func(ctx context.Context, f posture.Frame) posture.Result

// Options controls a replay run
type Options struct {
	// Speed scales real-time pacing; 0 replays as fast as possible.
	Speed float64

	// Start stamps the first frame when the recording has no timestamps.
	Start time.Time
}

// Stats summarizes a replay run
type Stats struct {
	Frames     int           `json:"frames"`
	Detected   int           `json:"detected"`
	Detections int           `json:"detections"` // bad posture cues
	StandUps   int           `json:"stand_ups"`
	Alerts     int           `json:"alerts"` // alarm loop starts
	Stretches  int           `json:"stretches"`
	Span       time.Duration `json:"span"`
}

// Run reads every frame from r and passes it to h.
func Run(ctx context.Context, r io.Reader, h Handler, opts Options) (Stats, error) {
	var st Stats
	if opts.Start.IsZero() {
		opts.Start = time.Now()
	}
	rd := NewReader(r, opts.Start)

	var first, last time.Time
	wallStart := time.Now()
	for {
		f, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}

		if first.IsZero() {
			first = f.At
		}
		if opts.Speed > 0 {
			due := wallStart.Add(time.Duration(float64(f.At.Sub(first)) / opts.Speed))
			if wait := time.Until(due); wait > 0 {
				select {
				case <-ctx.Done():
					return st, ctx.Err()
				case <-time.After(wait):
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}

		res := h(ctx, f)
		st.add(res)
		last = f.At
	}
	if !first.IsZero() {
		st.Span = last.Sub(first)
	}
	return st, nil
}

func (s *Stats) add(res posture.Result) {
	s.Frames++
	if res.Detected {
		s.Detected++
	}
	if res.HasCue(posture.CueBadPosture) {
		s.Detections++
	}
	if res.HasCue(posture.CueStandUp) {
		s.StandUps++
	}
	if res.HasCue(posture.CueAlertLoopStart) {
		s.Alerts++
	}
	if res.HasNotice(posture.NoticeStretch) {
		s.Stretches++
	}
}

package posture

import (
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/pose/posetest"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return t0.Add(time.Duration(sec * float64(time.Second)))
}

func body(sitDeg, standDeg float64) *pose.Snapshot {
	return posetest.Body(sitDeg, standDeg)
}

func goodSit() *pose.Snapshot  { return body(165, 95) }
func badSit() *pose.Snapshot   { return body(110, 95) }
func standing() *pose.Snapshot { return body(178, 178) }

func unreadable() *pose.Snapshot {
	s := goodSit()
	s.Landmarks[pose.Nose].Visibility = 0
	return s
}

// fakeLoop records alarm control calls.
type fakeLoop struct {
	active      bool
	refuseStart bool
	starts      int
	stops       int
}

func (f *fakeLoop) Start() bool {
	if f.active || f.refuseStart {
		return false
	}
	f.active = true
	f.starts++
	return true
}

func (f *fakeLoop) Stop() bool {
	if !f.active {
		return false
	}
	f.active = false
	f.stops++
	return true
}

func (f *fakeLoop) Active() bool { return f.active }

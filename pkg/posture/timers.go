package posture

import (
	"fmt"
	"time"
)

// Timers reconciles a SessionState against one frame's Reading: the sitting
// clock, the stand-up edge and its grace window, the bad-posture debounce and
// the long-sit reminder.
type Timers struct {
	cfg *Config
}

// NewTimers creates timers over cfg.
func NewTimers(cfg *Config) Timers {
	return Timers{cfg: cfg}
}

// Update advances st for a frame classified as r at now and returns the
// events raised. It does not touch PrevIsStanding or the alert flag.
//
// SittingStartTime holds only while every frame reads as sitting, so one
// frame with an unknown sit angle restarts the sitting clock. A detector
// whose nose visibility flickers below the threshold can therefore keep the
// long-sit reminder and alarm from ever firing.
func (t Timers) Update(st *SessionState, r Reading, now time.Time) []Event {
	var events []Event

	if r.IsSitting && st.SittingStartTime.IsZero() {
		st.SittingStartTime = now
		st.StretchPrompted = false
	}
	if !r.IsSitting {
		// Standing or an unreadable frame ends the sitting episode.
		st.SittingStartTime = time.Time{}
		st.StretchPrompted = false
	}
	if r.IsStanding {
		st.ConsecutiveBadPosture = 0
	}

	if r.IsStanding && !st.PrevIsStanding {
		st.StandUpTime = now
		st.BadPostureCount = 0
		events = append(events, soundEvent(CueStandUp, now))
	}

	switch {
	case t.Suppressed(st, now):
		events = append(events, displayEvent(DisplayPaused, "Posture Check Paused", now))

	case r.IsBadPosture:
		st.ConsecutiveBadPosture++
		if st.ConsecutiveBadPosture >= t.cfg.DebounceFrames &&
			now.Sub(st.LastDetectionTime) >= t.cfg.DetectionCooldown {
			st.BadPostureCount++
			st.LastDetectionTime = now
			st.ConsecutiveBadPosture = 0
			events = append(events, soundEvent(CueBadPosture, now))
		}
		events = append(events, displayEvent(DisplayBadPosture,
			fmt.Sprintf("Bad Posture! count:%d", st.BadPostureCount), now))

	default:
		st.ConsecutiveBadPosture = 0
		if r.IsStanding {
			events = append(events, displayEvent(DisplayStanding, "Standing!", now))
		} else {
			events = append(events, displayEvent(DisplayGoodPosture,
				fmt.Sprintf("Good Posture! count:%d", st.BadPostureCount), now))
		}
	}

	if st.longSit(r, now, t.cfg) {
		if !st.StretchPrompted {
			st.StretchPrompted = true
			events = append(events, noticeEvent(NoticeStretch,
				fmt.Sprintf("Sitting for %s, time to stretch", FormatHMS(st.SittingFor(now))), now))
		}
		events = append(events, displayEvent(DisplayStretch, "Stretch Time!", now))
	}

	return events
}

// Suppressed reports whether posture checks are paused after a stand-up.
func (t Timers) Suppressed(st *SessionState, now time.Time) bool {
	return !st.StandUpTime.IsZero() && now.Sub(st.StandUpTime) < t.cfg.StandUpGrace
}

// Reset clears the temporal state for a frame with nobody in view.
// BadPostureCount survives until the next stand-up edge.
func (t Timers) Reset(st *SessionState) {
	st.SittingStartTime = time.Time{}
	st.StretchPrompted = false
	st.ConsecutiveBadPosture = 0
	st.PrevIsStanding = false
}

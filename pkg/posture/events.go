package posture

import (
	"fmt"
	"time"
)

// EventKind separates sound cues, display text and log-level notices.
type EventKind string

const (
	KindSound   EventKind = "sound"
	KindDisplay EventKind = "display"
	KindNotice  EventKind = "notice"
)

// Cue identifies a sound action.
type Cue string

const (
	CueStandUp        Cue = "STAND_UP"
	CueBadPosture     Cue = "BAD_POSTURE_SHORT"
	CueAlertLoopStart Cue = "ALERT_LOOP_START"
	CueAlertLoopStop  Cue = "ALERT_LOOP_STOP"
)

// Display identifies an on-screen text slot.
type Display string

const (
	DisplayPaused      Display = "paused"
	DisplayBadPosture  Display = "bad_posture"
	DisplayStanding    Display = "standing"
	DisplayGoodPosture Display = "good_posture"
	DisplayStretch     Display = "stretch"
	DisplayAlert       Display = "alert"
	DisplayNoDetection Display = "no_detection"
	DisplayTimer       Display = "timer"
	DisplaySitAngle    Display = "sit_angle"
	DisplayStandAngle  Display = "stand_angle"
)

// Notice identifies a one-shot announcement.
type Notice string

const (
	NoticeStretch Notice = "stretch_reminder"
	NoticeAlert   Notice = "alert_raised"
)

// Event is one output of frame processing.
type Event struct {
	Kind    EventKind `json:"kind"`
	Cue     Cue       `json:"cue,omitempty"`
	Display Display   `json:"display,omitempty"`
	Notice  Notice    `json:"notice,omitempty"`
	Text    string    `json:"text,omitempty"`
	At      time.Time `json:"at"`
}

func soundEvent(cue Cue, at time.Time) Event {
	return Event{Kind: KindSound, Cue: cue, At: at}
}

func displayEvent(d Display, text string, at time.Time) Event {
	return Event{Kind: KindDisplay, Display: d, Text: text, At: at}
}

func noticeEvent(n Notice, text string, at time.Time) Event {
	return Event{Kind: KindNotice, Notice: n, Text: text, At: at}
}

// FormatHMS renders a duration as HH:MM:SS, truncating fractional seconds.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}

package protocol

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseMessage creates a pose message from a detected snapshot.
// A nil snapshot produces a no-detection message.
func NewPoseMessage(frameID uint64, snap *pose.Snapshot, at time.Time) (*Message, error) {
	data := PoseData{FrameID: frameID}
	if snap != nil {
		data.Detected = true
		data.Landmarks = make([]LandmarkData, len(snap.Landmarks))
		for i, lm := range snap.Landmarks {
			data.Landmarks[i] = LandmarkData{X: lm.X, Y: lm.Y, Z: lm.Z, Visibility: lm.Visibility}
		}
	}
	return NewMessageAt(TypePose, data, at)
}

// NewEventMessage wraps a processor event for clients
func NewEventMessage(sessionID string, e posture.Event) (*Message, error) {
	return NewMessageAt(TypeEvent, EventFromPosture(sessionID, e), e.At)
}

// NewStatusMessage creates a status message from a frame result
func NewStatusMessage(sessionID string, frameID uint64, res posture.Result, at time.Time) (*Message, error) {
	return NewMessageAt(TypeStatus, StatusFromResult(sessionID, frameID, res), at)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// EventFromPosture converts a processor event to its wire form
func EventFromPosture(sessionID string, e posture.Event) EventData {
	return EventData{
		SessionID: sessionID,
		Kind:      string(e.Kind),
		Cue:       string(e.Cue),
		Display:   string(e.Display),
		Notice:    string(e.Notice),
		Text:      e.Text,
		At:        e.At,
	}
}

// StatusFromResult converts a frame result to its wire form
func StatusFromResult(sessionID string, frameID uint64, res posture.Result) StatusData {
	st := res.State
	data := StatusData{
		SessionID: sessionID,
		FrameID:   frameID,
		Detected:  res.Detected,
		State: StateData{
			BadPostureCount:       st.BadPostureCount,
			ConsecutiveBadPosture: st.ConsecutiveBadPosture,
			SittingSince:          optionalTime(st.SittingStartTime),
			StandUpAt:             optionalTime(st.StandUpTime),
			LastDetectionAt:       optionalTime(st.LastDetectionTime),
			StretchPrompted:       st.StretchPrompted,
			AlertActive:           st.AlertActive,
		},
	}
	if res.Detected {
		r := res.Reading
		data.Reading = &ReadingData{
			Side:         string(r.Side),
			SitAngle:     optionalAngle(r.SitAngle),
			StandAngle:   optionalAngle(r.StandAngle),
			IsStanding:   r.IsStanding,
			IsSitting:    r.IsSitting,
			IsBadPosture: r.IsBadPosture,
		}
	}
	if timer, ok := res.Text(posture.DisplayTimer); ok {
		data.Timer = timer
	}
	return data
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalAngle(a pose.JointAngle) *float64 {
	if !a.Known {
		return nil
	}
	d := a.Degrees
	return &d
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetPoseData extracts pose data from a message
func (m *Message) GetPoseData() (*PoseData, error) {
	if m.Type != TypePose {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedType, m.Type)
	}
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Snapshot converts the landmarks to a pose snapshot.
// It returns nil when nobody was detected.
func (p *PoseData) Snapshot() *pose.Snapshot {
	if !p.Detected {
		return nil
	}
	lms := make([]pose.Landmark, len(p.Landmarks))
	for i, lm := range p.Landmarks {
		lms[i] = pose.Landmark{X: lm.X, Y: lm.Y, Z: lm.Z, Visibility: lm.Visibility}
	}
	return pose.NewSnapshot(lms)
}

// Frame converts a pose message to processor input. Messages without a
// timestamp are stamped with fallback.
func (m *Message) Frame(fallback time.Time) (posture.Frame, error) {
	data, err := m.GetPoseData()
	if err != nil {
		return posture.Frame{}, err
	}
	return posture.Frame{
		ID:       data.FrameID,
		Snapshot: data.Snapshot(),
		At:       m.Time(fallback),
	}, nil
}

// GetEventData extracts event data from a message
func (m *Message) GetEventData() (*EventData, error) {
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Package protocol defines the WebSocket message types exchanged between the
// pose detector, the posture server and dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Detector → Server messages
	TypePose MessageType = "pose" // Landmarks for one camera frame

	// Server → Client messages
	TypeEvent  MessageType = "event"  // Sound cue, display text or notice
	TypeStatus MessageType = "status" // Session state snapshot

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	return NewMessageAt(msgType, data, time.Now())
}

// NewMessageAt creates a new message stamped with at
func NewMessageAt(msgType MessageType, data interface{}, at time.Time) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: at.UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// Time returns the message timestamp, or fallback when it is unset.
func (m *Message) Time(fallback time.Time) time.Time {
	if m.Timestamp <= 0 {
		return fallback
	}
	return time.UnixMilli(m.Timestamp)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}

// =============================================================================
// Detector → Server Message Types
// =============================================================================

// PoseData contains the landmarks detected in one frame.
// Detected is false when the detector found nobody.
type PoseData struct {
	FrameID   uint64         `json:"frame_id,omitempty"`
	Detected  bool           `json:"detected"`
	Landmarks []LandmarkData `json:"landmarks,omitempty"`
}

// LandmarkData is a single normalized keypoint
type LandmarkData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"` // 0.0 to 1.0
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// EventData carries one processor event
type EventData struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`              // "sound", "display", "notice"
	Cue       string    `json:"cue,omitempty"`     // e.g. "STAND_UP"
	Display   string    `json:"display,omitempty"` // e.g. "bad_posture"
	Notice    string    `json:"notice,omitempty"`  // e.g. "stretch_reminder"
	Text      string    `json:"text,omitempty"`
	At        time.Time `json:"at"`
}

// StatusData is a snapshot of the session after a frame
type StatusData struct {
	SessionID string       `json:"session_id"`
	FrameID   uint64       `json:"frame_id,omitempty"`
	Detected  bool         `json:"detected"`
	Reading   *ReadingData `json:"reading,omitempty"`
	State     StateData    `json:"state"`
	Timer     string       `json:"timer,omitempty"` // "Sitting HH:MM:SS"
}

// ReadingData is the classification of the last detected frame
type ReadingData struct {
	Side         string   `json:"side"`                  // "left", "right"
	SitAngle     *float64 `json:"sit_angle,omitempty"`   // nil when unknown
	StandAngle   *float64 `json:"stand_angle,omitempty"` // nil when unknown
	IsStanding   bool     `json:"is_standing"`
	IsSitting    bool     `json:"is_sitting"`
	IsBadPosture bool     `json:"is_bad_posture"`
}

// StateData mirrors the session counters and timers
type StateData struct {
	BadPostureCount       int        `json:"bad_posture_count"`
	ConsecutiveBadPosture int        `json:"consecutive_bad_posture"`
	SittingSince          *time.Time `json:"sitting_since,omitempty"`
	StandUpAt             *time.Time `json:"stand_up_at,omitempty"`
	LastDetectionAt       *time.Time `json:"last_detection_at,omitempty"`
	StretchPrompted       bool       `json:"stretch_prompted"`
	AlertActive           bool       `json:"alert_active"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

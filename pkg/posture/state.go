package posture

import "time"

// SessionState is the mutable state of one monitoring session.
// Zero time values mean "not set".
type SessionState struct {
	BadPostureCount       int       `json:"bad_posture_count"`
	ConsecutiveBadPosture int       `json:"consecutive_bad_posture"`
	LastDetectionTime     time.Time `json:"last_detection_time"`
	SittingStartTime      time.Time `json:"sitting_start_time"`
	StretchPrompted       bool      `json:"stretch_prompted"`
	PrevIsStanding        bool      `json:"prev_is_standing"`
	StandUpTime           time.Time `json:"stand_up_time"`
	AlertActive           bool      `json:"alert_active"`
}

// SittingFor returns how long the current sitting episode has lasted at now.
func (s *SessionState) SittingFor(now time.Time) time.Duration {
	if s.SittingStartTime.IsZero() {
		return 0
	}
	return now.Sub(s.SittingStartTime)
}

// alertCondition reports whether the alarm loop should be running.
func (s *SessionState) alertCondition(r Reading, now time.Time, cfg *Config) bool {
	return s.BadPostureCount >= cfg.MaxBadPosture || s.longSit(r, now, cfg)
}

func (s *SessionState) longSit(r Reading, now time.Time, cfg *Config) bool {
	return r.IsSitting && !s.SittingStartTime.IsZero() && s.SittingFor(now) >= cfg.SitLimit
}

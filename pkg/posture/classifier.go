package posture

import (
	"github.com/teslashibe/go-posture/pkg/pose"
)

// Reading is the per-frame classification of a pose snapshot.
type Reading struct {
	Side       pose.Side       `json:"side"`
	SitAngle   pose.JointAngle `json:"sit_angle"`   // nose-shoulder-hip
	StandAngle pose.JointAngle `json:"stand_angle"` // knee-hip-shoulder

	IsStanding   bool `json:"is_standing"`
	IsSitting    bool `json:"is_sitting"`
	IsBadPosture bool `json:"is_bad_posture"`
}

// Classify measures both joint angles on the selected side and derives the
// standing, sitting and bad-posture signals. Standing overrides the other two.
func Classify(snap *pose.Snapshot, cfg *Config) Reading {
	side := pose.SelectSide(snap, cfg.VisibilityThreshold)

	r := Reading{
		Side:       side,
		SitAngle:   snap.Measure(pose.Nose, side.Shoulder(), side.Hip(), cfg.VisibilityThreshold),
		StandAngle: snap.Measure(side.Knee(), side.Hip(), side.Shoulder(), cfg.VisibilityThreshold),
	}

	r.IsStanding = r.StandAngle.Known && r.StandAngle.Degrees >= cfg.StandThreshold
	r.IsSitting = r.SitAngle.Known && !r.IsStanding
	r.IsBadPosture = r.IsSitting && r.SitAngle.Degrees < cfg.PostureThreshold
	return r
}

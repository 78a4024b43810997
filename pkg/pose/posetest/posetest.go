// Package posetest builds synthetic pose snapshots for tests.
package posetest

import (
	"math"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// Body builds a left-facing snapshot whose nose-shoulder-hip angle is sitDeg
// and whose shoulder-hip-knee angle is standDeg. Right-side landmarks are
// present but barely visible.
func Body(sitDeg, standDeg float64) *pose.Snapshot {
	lms := make([]pose.Landmark, pose.NumBodyParts)
	for _, p := range []pose.BodyPart{pose.RightShoulder, pose.RightHip, pose.RightKnee} {
		lms[p].Visibility = 0.1
	}

	shoulder := pose.Landmark{X: 0.5, Y: 0.3, Visibility: 0.95}
	hip := pose.Landmark{X: 0.5, Y: 0.6, Visibility: 0.95}

	// Shoulder→hip points down (90°); the nose ray sits sitDeg away from it.
	phi := (90 - sitDeg) * math.Pi / 180
	nose := pose.Landmark{X: shoulder.X + 0.2*math.Cos(phi), Y: shoulder.Y + 0.2*math.Sin(phi), Visibility: 0.95}

	// Hip→shoulder points up (-90°); the knee ray sits standDeg away from it.
	psi := (-90 + standDeg) * math.Pi / 180
	knee := pose.Landmark{X: hip.X + 0.3*math.Cos(psi), Y: hip.Y + 0.3*math.Sin(psi), Visibility: 0.95}

	lms[pose.Nose] = nose
	lms[pose.LeftShoulder] = shoulder
	lms[pose.LeftHip] = hip
	lms[pose.LeftKnee] = knee
	return pose.NewSnapshot(lms)
}

// GoodSit is an upright seated pose.
func GoodSit() *pose.Snapshot { return Body(165, 95) }

// BadSit is a slouched seated pose.
func BadSit() *pose.Snapshot { return Body(110, 95) }

// Standing is an upright standing pose.
func Standing() *pose.Snapshot { return Body(178, 178) }

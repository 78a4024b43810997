package pose

import "math"

// Angle returns the angle at vertex b between rays b→a and b→c, in degrees [0,180].
func Angle(a, b, c Point) float64 {
	deg := math.Abs(math.Atan2(c.Y-b.Y, c.X-b.X)-math.Atan2(a.Y-b.Y, a.X-b.X)) * 180 / math.Pi
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// JointAngle is an angle measured on a landmark triple.
// Known is false when a landmark was missing or not visible enough.
type JointAngle struct {
	Degrees float64 `json:"degrees"`
	Known   bool    `json:"known"`
}

// Unknown is the angle reported for an unusable triple.
var Unknown = JointAngle{}

// Measure computes the angle at vertex b over the landmark triple (a, b, c).
// The result is Unknown if any index is out of range or below minVisibility.
func (s *Snapshot) Measure(a, b, c BodyPart, minVisibility float64) JointAngle {
	la, okA := s.Get(a)
	lb, okB := s.Get(b)
	lc, okC := s.Get(c)
	if !okA || !okB || !okC {
		return Unknown
	}
	if math.Min(la.Visibility, math.Min(lb.Visibility, lc.Visibility)) < minVisibility {
		return Unknown
	}
	return JointAngle{Degrees: Angle(la.Point(), lb.Point(), lc.Point()), Known: true}
}

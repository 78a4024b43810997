// Package pose holds body landmark types and the 2-D geometry used to read
// posture from them: joint angles and the choice of which body side to trust.
package pose

// Landmark is a detected body keypoint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`          // Depth relative to the hips, smaller = nearer the camera
	Visibility float64 `json:"visibility"` // 0-1 detector confidence
}

// Point returns the planar position of the landmark.
func (l Landmark) Point() Point {
	return Point{X: l.X, Y: l.Y}
}

// Point is a 2-D position.
type Point struct {
	X, Y float64
}

// BodyPart indexes a landmark within a Snapshot (MediaPipe Pose ordering).
type BodyPart int

const (
	Nose          BodyPart = 0
	LeftShoulder  BodyPart = 11
	RightShoulder BodyPart = 12
	LeftHip       BodyPart = 23
	RightHip      BodyPart = 24
	LeftKnee      BodyPart = 25
	RightKnee     BodyPart = 26

	// NumBodyParts is the landmark count of a full snapshot.
	NumBodyParts = 33
)

// Snapshot is one frame's landmarks, ordered by BodyPart.
// A detector may send fewer than NumBodyParts entries.
type Snapshot struct {
	Landmarks []Landmark
}

// NewSnapshot wraps a landmark slice.
func NewSnapshot(landmarks []Landmark) *Snapshot {
	return &Snapshot{Landmarks: landmarks}
}

// Get returns the landmark for part and whether the index exists.
func (s *Snapshot) Get(part BodyPart) (Landmark, bool) {
	if s == nil || part < 0 || int(part) >= len(s.Landmarks) {
		return Landmark{}, false
	}
	return s.Landmarks[part], true
}

// at returns the landmark for part, or the zero landmark when missing.
func (s *Snapshot) at(part BodyPart) Landmark {
	lm, _ := s.Get(part)
	return lm
}

package pose

// Side is the body side used for angle measurements.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// DefaultVisibility is the visibility threshold used when none is configured.
const DefaultVisibility = 0.5

// Initial returns "L" or "R".
func (s Side) Initial() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// Shoulder returns the shoulder landmark on this side.
func (s Side) Shoulder() BodyPart {
	if s == Left {
		return LeftShoulder
	}
	return RightShoulder
}

// Hip returns the hip landmark on this side.
func (s Side) Hip() BodyPart {
	if s == Left {
		return LeftHip
	}
	return RightHip
}

// Knee returns the knee landmark on this side.
func (s Side) Knee() BodyPart {
	if s == Left {
		return LeftKnee
	}
	return RightKnee
}

// SelectSide picks the side facing the camera.
//
// Precedence: combined shoulder+hip visibility (at least 2v and strictly above
// the other side), then the nearer shoulder by z, then the shoulder closer to
// the nose in the image plane. Missing landmarks read as invisible at the origin.
func SelectSide(s *Snapshot, v float64) Side {
	ls, rs := s.at(LeftShoulder), s.at(RightShoulder)
	lh, rh := s.at(LeftHip), s.at(RightHip)

	visLeft := ls.Visibility + lh.Visibility
	visRight := rs.Visibility + rh.Visibility
	if visLeft >= 2*v && visLeft > visRight {
		return Left
	}
	if visRight >= 2*v && visRight > visLeft {
		return Right
	}

	if ls.Z < rs.Z {
		return Left
	}
	if rs.Z < ls.Z {
		return Right
	}

	nose := s.at(Nose)
	dl := sqDist(nose.Point(), ls.Point())
	dr := sqDist(nose.Point(), rs.Point())
	if dl < dr {
		return Left
	}
	return Right
}

func sqDist(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

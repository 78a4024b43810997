package posture

import "errors"

var (
	// ErrInvalidThreshold is returned when an angle or visibility threshold is out of range.
	ErrInvalidThreshold = errors.New("posture: invalid threshold")

	// ErrInvalidDuration is returned when a timing parameter is negative.
	ErrInvalidDuration = errors.New("posture: invalid duration")

	// ErrInvalidCount is returned when a frame or detection count is not positive.
	ErrInvalidCount = errors.New("posture: invalid count")
)

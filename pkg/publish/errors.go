package publish

import "errors"

var (
	// ErrTimeout is returned when a broker does not acknowledge in time.
	ErrTimeout = errors.New("publish: timed out")

	// ErrNotConfigured is returned when a sink is created without an address.
	ErrNotConfigured = errors.New("publish: sink not configured")
)

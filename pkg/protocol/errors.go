package protocol

import "errors"

var (
	// ErrMissingType is returned for messages without a type field.
	ErrMissingType = errors.New("protocol: message type missing")

	// ErrUnexpectedType is returned when a message has the wrong type for the getter.
	ErrUnexpectedType = errors.New("protocol: unexpected message type")
)

package audio

import "errors"

var (
	// ErrNoClip is returned when a clip has no file in the library.
	ErrNoClip = errors.New("audio: clip not found")

	// ErrQueueFull is returned when a cue cannot be queued without blocking.
	ErrQueueFull = errors.New("audio: cue queue full")

	// ErrClosed is returned when using a closed cue queue.
	ErrClosed = errors.New("audio: closed")
)

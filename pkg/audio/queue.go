package audio

import (
	"context"
	"log/slog"
	"sync"
)

// CueQueue plays one-shot clips in order on a single goroutine.
// Enqueue never blocks; when the queue is full the cue is dropped.
type CueQueue struct {
	player Player
	logger *slog.Logger
	queue  chan Clip

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewCueQueue starts a queue holding up to size pending cues.
func NewCueQueue(player Player, size int, logger *slog.Logger) *CueQueue {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &CueQueue{
		player: player,
		logger: logger,
		queue:  make(chan Clip, size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue schedules clip for playback.
func (q *CueQueue) Enqueue(clip Clip) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.queue <- clip:
		return nil
	default:
		q.logger.Warn("cue dropped, queue full", "clip", clip)
		return ErrQueueFull
	}
}

func (q *CueQueue) run() {
	defer close(q.done)
	for clip := range q.queue {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.player.Play(q.ctx, clip); err != nil && q.ctx.Err() == nil {
			q.logger.Warn("cue playback failed", "clip", clip, "error", err)
		}
	}
}

// Close cancels the clip in progress, discards pending cues and waits for
// the worker to exit. It is safe to call Close multiple times.
func (q *CueQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.cancel()
	<-q.done
}

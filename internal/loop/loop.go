// Package loop provides a single goroutine event queue. Everything posted to a
// Loop runs one at a time, in the order it was posted.
package loop

import (
	"context"
	"errors"
)

// ErrClosed is returned by Do once the loop has stopped.
var ErrClosed = errors.New("loop: closed")

const queueSize = 64

// Loop serializes work onto the goroutine running Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

// New returns a loop that accepts work immediately; nothing runs until Run.
func New() *Loop {
	return &Loop{
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is cancelled. Work still queued at
// that point is discarded.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post enqueues fn without waiting for it to run. It blocks while the queue is
// full and returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to return. Calling Do from inside a
// posted function deadlocks.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have been queued behind the shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

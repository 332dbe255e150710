package internal

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs callbacks one at a time on a single goroutine. State owned by
// the loop needs no locking as long as it is only touched from callbacks.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run processes callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.pending = nil
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fn()
			}
		}
	}
}

// Post enqueues fn. It never blocks, so it is safe to call from a callback.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// After posts fn once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

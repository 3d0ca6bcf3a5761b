// Package cancellation provides the one-way cancel latch shared between a run's
// caller, the pipeline worker, and the subprocess executor.
package cancellation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrCancelled is the cause attached to contexts derived from a tripped Token.
var ErrCancelled = errors.New("cancelled by user")

// Token is a monotonic cancel signal. The zero value is not usable; call New.
// Cancel may be called from any goroutine, any number of times; once tripped
// the token never resets.
type Token struct {
	tripped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// New returns an untripped token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel trips the token. It reports whether this call performed the transition.
func (t *Token) Cancel() bool {
	if t == nil {
		return false
	}
	first := false
	t.once.Do(func() {
		t.tripped.Store(true)
		close(t.done)
		first = true
	})
	return first
}

// Cancelled reports whether the token has been tripped. A nil token is never cancelled.
func (t *Token) Cancelled() bool {
	return t != nil && t.tripped.Load()
}

// Done returns a channel closed when the token trips. A nil token returns a nil
// channel, which blocks forever in a select.
func (t *Token) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// Context derives a context that is cancelled with ErrCancelled when the token
// trips. The returned stop function releases the watcher goroutine.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	if t == nil {
		return ctx, func() { cancel(context.Canceled) }
	}
	go func() {
		select {
		case <-t.done:
			cancel(ErrCancelled)
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}

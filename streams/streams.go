// Package streams provides the per-turn output channels: bounded,
// single-writer streams that the turn body produces into and the caller
// consumes, each terminated by an explicit done (channel close).
package streams

import (
	"sync"
)

// Stream is an append-only sequence of values with a single producer.
// Done closes the stream exactly once; sends after Done are dropped.
type Stream[T any] struct {
	ch     chan T
	mu     sync.Mutex
	closed bool
}

// New creates a stream with the given buffer size.
func New[T any](buffer int) *Stream[T] {
	return &Stream[T]{ch: make(chan T, buffer)}
}

// Send delivers v to the consumer, blocking if the buffer is full.
// Returns false if the stream is already done. The lock is not held across
// the blocking send, so a stalled consumer cannot wedge Done behind it; a
// Done that closes the channel under a blocked send drops that value.
func (s *Stream[T]) Send(v T) (ok bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	s.ch <- v
	return true
}

// Done closes the stream. Safe to call more than once.
func (s *Stream[T]) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// DoneWith sends a final value and closes the stream.
func (s *Stream[T]) DoneWith(v T) {
	s.Send(v)
	s.Done()
}

// C returns the receive side of the stream.
func (s *Stream[T]) C() <-chan T {
	return s.ch
}

// Set bundles the three output channels of one turn. Each is independent;
// no cross-channel ordering is guaranteed.
type Set struct {
	UI         *Stream[Event]
	Generating *Stream[bool]
	Collapsed  *Stream[bool]
}

// NewSet creates the three streams for a turn.
func NewSet() *Set {
	return &Set{
		UI:         New[Event](64),
		Generating: New[bool](4),
		Collapsed:  New[bool](4),
	}
}

// CloseAll closes every stream in the set. Idempotent; called
// unconditionally as the last action of a turn.
func (s *Set) CloseAll() {
	s.UI.Done()
	s.Generating.Done()
	s.Collapsed.Done()
}

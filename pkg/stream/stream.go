// Package stream provides the synchronous publish-subscribe channels that connect
// the dispatch service, the diagram adapter and the synchronizer.
//
// A Stream delivers every published value to its subscribers in subscription order,
// on the caller's goroutine, before Publish returns. Streams are finite: once closed
// they cannot be restarted. A Stream is not safe for concurrent use; callers provide
// the single logical thread of control.
package stream

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when publishing on a closed stream.
var ErrClosed = errors.New("stream closed")

// Handler consumes a value published on a Stream.
// A non-nil error is reported back to the publisher.
type Handler[T any] func(T) error

type subscription[T any] struct {
	id int
	fn Handler[T]
}

// Stream is a named broadcast channel for values of type T.
type Stream[T any] struct {
	name   string
	nextID int
	subs   []subscription[T]
	closed bool
}

// New creates an open stream. The name is used in error messages.
func New[T any](name string) *Stream[T] {
	return &Stream[T]{name: name}
}

// Name returns the stream name.
func (s *Stream[T]) Name() string {
	return s.name
}

// Subscribe registers fn and returns the function that removes it.
// Subscribing to a closed stream is a no-op.
func (s *Stream[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})

	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to every current subscriber.
// Every subscriber runs even if an earlier one fails; the failures are joined.
func (s *Stream[T]) Publish(v T) error {
	if s.closed {
		return fmt.Errorf("%s: %w", s.name, ErrClosed)
	}

	// Snapshot so that handlers may (un)subscribe while being called.
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)

	var errs []error
	for _, sub := range subs {
		if err := sub.fn(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of active subscribers.
func (s *Stream[T]) Len() int {
	return len(s.subs)
}

// Close drops every subscriber. Later calls to Publish fail with ErrClosed.
func (s *Stream[T]) Close() {
	s.closed = true
	s.subs = nil
}

// Closed reports whether Close has been called.
func (s *Stream[T]) Closed() bool {
	return s.closed
}

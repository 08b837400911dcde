package wizard

import (
	"errors"
	"sync"
)

// ErrNotAcquired is returned by Release when the count is already zero.
var ErrNotAcquired = errors.New("shared resource released more often than acquired")

// Resource is something a wizard holds for its lifetime.
type Resource interface {
	Retain() error
	Release() error
}

// Shared is a reference-counted resource shared by several wizard instances.
// The first Acquire opens it and the Release that drops the count to zero
// closes it. A later Acquire opens it again.
type Shared[T any] struct {
	mu    sync.Mutex
	open  func() (T, error)
	close func(T) error
	refs  int
	value T
}

// NewShared returns a handle that lazily calls open and tears down with close.
// close may be nil.
func NewShared[T any](open func() (T, error), close func(T) error) *Shared[T] {
	return &Shared[T]{open: open, close: close}
}

// Acquire increments the count, opening the resource on first use.
func (s *Shared[T]) Acquire() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		v, err := s.open()
		if err != nil {
			var zero T
			return zero, err
		}
		s.value = v
	}
	s.refs++
	return s.value, nil
}

// Retain acquires without returning the value.
func (s *Shared[T]) Retain() error {
	_, err := s.Acquire()
	return err
}

// Release decrements the count, closing the resource when it reaches zero.
func (s *Shared[T]) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return ErrNotAcquired
	}
	s.refs--
	if s.refs > 0 {
		return nil
	}
	v := s.value
	var zero T
	s.value = zero
	if s.close != nil {
		return s.close(v)
	}
	return nil
}

// Value returns the open resource without changing the count.
func (s *Shared[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Refs returns the current reference count.
func (s *Shared[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

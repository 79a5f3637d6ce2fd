package state

import "sync"

// Store maps a user id to its pending step. At most one step per user exists.
type Store[T any] struct {
	mu    sync.RWMutex
	steps map[int64]T
}

// NewStore returns an empty step store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{steps: make(map[int64]T)}
}

// Get returns the user's pending step.
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.steps[userID]
	return st, ok
}

// Set replaces whatever step the user had.
func (s *Store[T]) Set(userID int64, step T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[userID] = step
}

// Clear removes the user's step and reports whether one existed.
func (s *Store[T]) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.steps[userID]
	delete(s.steps, userID)
	return ok
}

// CompareAndClear removes the step only if match accepts the current value,
// so a step replaced by a newer command is left alone.
func (s *Store[T]) CompareAndClear(userID int64, match func(T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.steps[userID]
	if !ok || !match(cur) {
		return false
	}
	delete(s.steps, userID)
	return true
}

// InProgress reports whether the user has a pending step.
func (s *Store[T]) InProgress(userID int64) bool {
	_, ok := s.Get(userID)
	return ok
}

// Len returns the number of users with a pending step.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.steps)
}

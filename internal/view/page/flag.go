package page

import "sync"

// syncingFlag is a flag that is safe to use concurrently.
type syncingFlag struct {
	syncing bool
	mu      sync.Mutex
}

// Get returns the current value.
func (s *syncingFlag) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// Set sets the value and returns true if the value changed.
func (s *syncingFlag) Set(v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.syncing != v
	s.syncing = v
	return changed
}

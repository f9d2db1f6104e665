package core

import "sync"

// State is the key/value store shared between lifecycle handlers and request
// handlers. It is owned by the hosting connection manager and passed by
// reference; the framework never copies it. The mutex makes individual
// operations memory-safe under concurrent flows, nothing more: there are no
// transactional guarantees across operations.
type State struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewState creates an empty store.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key from the store.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

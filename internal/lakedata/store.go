package lakedata

import "sync/atomic"

// Store holds the current data context. It is empty until the first load
// completes.
type Store struct {
	current atomic.Pointer[Context]
}

// Get returns the current context, or nil before the first load.
func (s *Store) Get() *Context {
	return s.current.Load()
}

// Set replaces the current context.
func (s *Store) Set(c *Context) {
	s.current.Store(c)
}

// Ready reports whether a context has been loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

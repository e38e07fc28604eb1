// Package document holds the single HTML document the service works on.
package document

import "sync"

// Store is the current document state. The zero value is an empty document at revision 0.
type Store struct {
	mu       sync.RWMutex
	html     string
	revision uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current HTML, or "" if nothing was set yet.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html
}

// Set replaces the whole document and returns the new revision.
func (s *Store) Set(html string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
	s.revision++
	return s.revision
}

// Snapshot returns the HTML together with the revision it belongs to.
func (s *Store) Snapshot() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html, s.revision
}

// Revision returns how many times the document has been set.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

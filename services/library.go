package services

import "sync"

// Library holds the library root directory. The root can change at runtime
// when the user saves new settings; readers pick it up on their next call.
type Library struct {
	mu   sync.RWMutex
	root string
}

// NewLibrary creates a library rooted at root
func NewLibrary(root string) *Library {
	return &Library{root: root}
}

// Root returns the current library directory
func (l *Library) Root() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root
}

// SetRoot points the library at a new directory
func (l *Library) SetRoot(root string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.root = root
}

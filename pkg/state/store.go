// Package state holds the per-button on/off state mirrored to the lighting software
package state

import (
	"sort"
	"sync"
)

// MaxButtonNote is the highest note number that identifies a button.
// Note 127 is reserved as the clear-all control code and is never stored.
const MaxButtonNote = 126

// Store maps button note numbers to their on/off state. Notes that have
// never been observed read as off. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	buttons map[uint8]bool
}

// New creates an empty Store
func New() *Store {
	return &Store{buttons: make(map[uint8]bool)}
}

// Get returns the current state of a button, defaulting to off
func (s *Store) Get(note uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[note]
}

// Set records the desired state for a button and reports whether the stored
// value changed. Callers use the result to suppress redundant output.
func (s *Store) Set(note uint8, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buttons[note] == active {
		return false
	}
	s.buttons[note] = active
	return true
}

// ClearAll turns every button off and returns the notes that were active,
// in ascending order, so callers only emit "off" where it is needed.
func (s *Store) ClearAll() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []uint8
	for note, on := range s.buttons {
		if on {
			active = append(active, note)
		}
	}
	s.buttons = make(map[uint8]bool)

	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	return active
}

// Active returns the notes currently on, in ascending order
func (s *Store) Active() []uint8 {
	s.mu.Lock()
	var active []uint8
	for note, on := range s.buttons {
		if on {
			active = append(active, note)
		}
	}
	s.mu.Unlock()

	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	return active
}

// Snapshot returns a copy of every observed entry. Mutating the copy does
// not affect the Store.
func (s *Store) Snapshot() map[uint8]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[uint8]bool, len(s.buttons))
	for note, on := range s.buttons {
		snap[note] = on
	}
	return snap
}

// Reset drops every entry without reporting what was active
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = make(map[uint8]bool)
}

// Package player holds the playback state machine: an explicit State, the
// events that drive it, the commands it issues to the media sink, and a
// Controller that owns the state on a single goroutine.
package player

import (
	"a4blend/types"
)

// Phase is the externally visible transport state
type Phase int

const (
	PhaseEmpty Phase = iota
	PhasePaused
	PhasePlaying
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhasePaused:
		return "paused"
	case PhasePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// State is the whole player state. Values are treated as immutable:
// Reduce returns a new State and slices are replaced, never edited.
type State struct {
	Catalog types.Catalog
	Query   string
	Index   []int // catalog positions matching Query

	Current int // catalog position, -1 when the catalog is empty
	Playing bool
	Volume  float64 // [0, 1]
	Elapsed float64 // seconds
	Total   float64 // seconds, 0 while unknown

	// Generation increments on every source change. Sink events carry the
	// generation of the source they refer to.
	Generation uint64
}

// NewState returns the initial Empty state
func NewState() State {
	return State{
		Index:   []int{},
		Current: -1,
		Volume:  1,
	}
}

// IsEmpty reports whether there is no track to play
func (s State) IsEmpty() bool {
	return s.Current < 0 || s.Current >= len(s.Catalog)
}

// Phase returns the transport phase
func (s State) Phase() Phase {
	switch {
	case s.IsEmpty():
		return PhaseEmpty
	case s.Playing:
		return PhasePlaying
	default:
		return PhasePaused
	}
}

// CurrentEntry returns the loaded entry, if any
func (s State) CurrentEntry() (types.CatalogEntry, bool) {
	if s.IsEmpty() {
		return types.CatalogEntry{}, false
	}
	return s.Catalog[s.Current], true
}

// Progress returns elapsed time as a 0-100 percentage
func (s State) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return s.Elapsed / s.Total * 100
}

package player

import (
	"a4blend/types"
)

// EventKind identifies a user command or a sink notification
type EventKind int

const (
	EventCatalogLoaded EventKind = iota
	EventTogglePlayPause
	EventNext
	EventPrevious
	EventSelectFromSearch
	EventSetQuery
	EventSeek
	EventSetVolume
	EventToggleMute

	// Sink notifications
	EventTimeUpdate
	EventEnded
	EventPlayFailed
)

var eventNames = map[EventKind]string{
	EventCatalogLoaded:    "catalogLoaded",
	EventTogglePlayPause:  "togglePlayPause",
	EventNext:             "next",
	EventPrevious:         "previous",
	EventSelectFromSearch: "selectFromSearch",
	EventSetQuery:         "setQuery",
	EventSeek:             "seek",
	EventSetVolume:        "setVolume",
	EventToggleMute:       "toggleMute",
	EventTimeUpdate:       "timeUpdate",
	EventEnded:            "ended",
	EventPlayFailed:       "playFailed",
}

// String returns the wire name of the event
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsSinkEvent reports whether the event originates from the media sink
func (k EventKind) IsSinkEvent() bool {
	return k == EventTimeUpdate || k == EventEnded || k == EventPlayFailed
}

// Event is one input to Reduce. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind
	Catalog    types.Catalog
	Position   int
	Query      string
	Ratio      float64
	Volume     float64
	Generation uint64
	Elapsed    float64
	Total      float64
}

func CatalogLoaded(catalog types.Catalog) Event {
	return Event{Kind: EventCatalogLoaded, Catalog: catalog}
}

func TogglePlayPause() Event { return Event{Kind: EventTogglePlayPause} }

func Next() Event { return Event{Kind: EventNext} }

func Previous() Event { return Event{Kind: EventPrevious} }

// SelectFromSearch picks the pos-th search result
func SelectFromSearch(pos int) Event {
	return Event{Kind: EventSelectFromSearch, Position: pos}
}

func SetQuery(query string) Event { return Event{Kind: EventSetQuery, Query: query} }

// Seek jumps to ratio (0-1) of the track duration
func Seek(ratio float64) Event { return Event{Kind: EventSeek, Ratio: ratio} }

func SetVolume(volume float64) Event { return Event{Kind: EventSetVolume, Volume: volume} }

func ToggleMute() Event { return Event{Kind: EventToggleMute} }

// TimeUpdate reports the sink position; total may be NaN before metadata loads
func TimeUpdate(generation uint64, elapsed, total float64) Event {
	return Event{Kind: EventTimeUpdate, Generation: generation, Elapsed: elapsed, Total: total}
}

func Ended(generation uint64) Event {
	return Event{Kind: EventEnded, Generation: generation}
}

// PlayFailed reports that the sink rejected a play command
func PlayFailed(generation uint64) Event {
	return Event{Kind: EventPlayFailed, Generation: generation}
}

package player

import (
	"math"

	"a4blend/services"
)

// Reduce applies ev to s and returns the next state plus the commands the
// sink must execute, in order. It never mutates s.
//
// UI state is updated optimistically: Playing flips before the sink confirms.
// A PlayFailed event from the sink reconciles it back.
func Reduce(s State, ev Event) (State, []Command) {
	switch ev.Kind {
	case EventCatalogLoaded:
		return loadCatalog(s, ev)

	case EventSetQuery:
		s.Query = ev.Query
		s.Index = services.ComputeIndex(s.Catalog, ev.Query)
		return s, nil

	case EventSetVolume:
		if math.IsNaN(ev.Volume) {
			return s, nil
		}
		s.Volume = clamp(ev.Volume, 0, 1)
		return s, []Command{{Kind: CmdSetVolume, Volume: s.Volume}}

	case EventToggleMute:
		// Mute is volume 0; unmuting always restores full volume.
		if s.Volume > 0 {
			s.Volume = 0
		} else {
			s.Volume = 1
		}
		return s, []Command{{Kind: CmdSetVolume, Volume: s.Volume}}
	}

	if s.IsEmpty() {
		return s, nil
	}
	if ev.Kind.IsSinkEvent() && IsStale(s, ev) {
		return s, nil
	}

	n := len(s.Catalog)
	switch ev.Kind {
	case EventTogglePlayPause:
		s.Playing = !s.Playing
		if s.Playing {
			return s, []Command{{Kind: CmdPlay, Generation: s.Generation}}
		}
		return s, []Command{{Kind: CmdPause, Generation: s.Generation}}

	case EventNext, EventEnded:
		return load(s, (s.Current+1)%n, true)

	case EventPrevious:
		return load(s, (s.Current-1+n)%n, true)

	case EventSelectFromSearch:
		if ev.Position < 0 || ev.Position >= len(s.Index) {
			return s, nil
		}
		return load(s, s.Index[ev.Position], true)

	case EventSeek:
		if s.Total <= 0 || math.IsNaN(ev.Ratio) {
			return s, nil
		}
		return s, []Command{{Kind: CmdSeekTo, Generation: s.Generation, Seconds: clamp(ev.Ratio, 0, 1) * s.Total}}

	case EventTimeUpdate:
		if isFinite(ev.Total) && ev.Total > 0 {
			s.Total = ev.Total
		} else {
			s.Total = 0
		}
		elapsed := ev.Elapsed
		if !isFinite(elapsed) || elapsed < 0 {
			elapsed = 0
		}
		if s.Total > 0 && elapsed > s.Total {
			elapsed = s.Total
		}
		s.Elapsed = elapsed
		return s, nil

	case EventPlayFailed:
		s.Playing = false
		return s, nil
	}

	return s, nil
}

// IsStale reports whether a sink event refers to a source that is no longer loaded
func IsStale(s State, ev Event) bool {
	return ev.Generation != s.Generation
}

func loadCatalog(s State, ev Event) (State, []Command) {
	s.Catalog = ev.Catalog
	s.Index = services.ComputeIndex(ev.Catalog, s.Query)
	s.Elapsed, s.Total = 0, 0
	s.Generation++

	if len(ev.Catalog) == 0 {
		wasPlaying := s.Playing
		s.Current = -1
		s.Playing = false
		if wasPlaying {
			return s, []Command{{Kind: CmdPause, Generation: s.Generation}}
		}
		return s, nil
	}

	s.Current = 0
	s.Playing = false
	return s, []Command{{Kind: CmdSetSource, Source: ev.Catalog[0].SourceRef, Generation: s.Generation}}
}

// load points the sink at catalog position i
func load(s State, i int, playing bool) (State, []Command) {
	s.Current = i
	s.Playing = playing
	s.Elapsed, s.Total = 0, 0
	s.Generation++

	cmds := []Command{{Kind: CmdSetSource, Source: s.Catalog[i].SourceRef, Generation: s.Generation}}
	if playing {
		cmds = append(cmds, Command{Kind: CmdPlay, Generation: s.Generation})
	}
	return s, cmds
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package player

// View is the JSON shape of a State for the browser
type View struct {
	Phase        string       `json:"phase"`
	CurrentIndex *int         `json:"currentIndex"`
	Title        string       `json:"title,omitempty"`
	Src          string       `json:"src,omitempty"`
	Cover        string       `json:"cover,omitempty"`
	Playing      bool         `json:"isPlaying"`
	Volume       float64      `json:"volume"`
	Elapsed      float64      `json:"elapsedSeconds"`
	Total        float64      `json:"totalSeconds"`
	Progress     float64      `json:"progress"` // 0-100
	CurrentTime  string       `json:"currentTime"`
	Duration     string       `json:"duration"`
	Generation   uint64       `json:"generation"`
	Query        string       `json:"query"`
	Results      []ResultView `json:"results"`
	Count        int          `json:"count"`
}

// ResultView is one row of the filtered track list
type ResultView struct {
	Position int    `json:"position"` // index into Results, what selectFromSearch takes
	Index    int    `json:"index"`    // catalog position
	Title    string `json:"title"`
	Current  bool   `json:"current"`
}

// View renders s for the browser
func (s State) View() View {
	v := View{
		Phase:       s.Phase().String(),
		Playing:     s.Playing,
		Volume:      s.Volume,
		Elapsed:     s.Elapsed,
		Total:       s.Total,
		Progress:    s.Progress(),
		CurrentTime: FormatTime(s.Elapsed),
		Duration:    FormatTime(s.Total),
		Generation:  s.Generation,
		Query:       s.Query,
		Results:     make([]ResultView, 0, len(s.Index)),
		Count:       len(s.Catalog),
	}

	if entry, ok := s.CurrentEntry(); ok {
		current := s.Current
		v.CurrentIndex = &current
		v.Title = entry.Title
		v.Src = entry.SourceRef
		v.Cover = entry.Cover
	}

	for pos, idx := range s.Index {
		v.Results = append(v.Results, ResultView{
			Position: pos,
			Index:    idx,
			Title:    s.Catalog[idx].Title,
			Current:  idx == s.Current,
		})
	}
	return v
}

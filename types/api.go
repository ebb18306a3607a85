package types

// AudioFile represents a discovered audio file (FLAC, MP3)
type AudioFile struct {
	Filename string         `json:"filename"`
	Path     string         `json:"path"` // relative to the library root, slash separated
	Size     int64          `json:"size"`
	Format   string         `json:"format"` // "flac" or "mp3"
	Metadata *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata represents tag metadata for an audio file
type AudioMetadata struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	HasCover    bool   `json:"hasCover"`
}

// FileListing is the /api/files response
type FileListing struct {
	Library string      `json:"library"`
	Files   []AudioFile `json:"files"`
	Count   int         `json:"count"`
}

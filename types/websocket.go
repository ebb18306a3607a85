package types

import (
	"encoding/json"
	"time"
)

// Topics a websocket client can subscribe to
const (
	TopicPlayer = "player"
	TopicJobs   = "jobs"
)

// Message is the envelope for every websocket frame in both directions
type Message struct {
	Topic     string          `json:"topic,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProgressMessage represents a build job progress update
type ProgressMessage struct {
	JobID       string  `json:"jobId"`
	Type        string  `json:"type"`     // "progress", "status", "complete", "error"
	Progress    float64 `json:"progress"` // 0-100 percentage
	Status      string  `json:"status"`
	CurrentFile string  `json:"currentFile"`
	Message     string  `json:"message,omitempty"`
}

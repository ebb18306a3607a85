package types

import "time"

// JobType represents the kind of background job
type JobType string

const (
	JobTypeCatalogBuild JobType = "catalog-build"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
	// JobStatusSuperseded marks a build whose result was discarded because a
	// newer build was requested while it ran.
	JobStatusSuperseded JobStatus = "superseded"
)

// BuildJob represents a catalog build in the queue
type BuildJob struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Generation  uint64     `json:"generation"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Entries     int        `json:"entries"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

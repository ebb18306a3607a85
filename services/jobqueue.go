package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"a4blend/metrics"
	"a4blend/types"
	"a4blend/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BuildQueue interface defines the methods for managing catalog build jobs
type BuildQueue interface {
	Start(ctx context.Context)
	AddJob() *types.BuildJob
	GetJob(id string) (*types.BuildJob, bool)
	GetAllJobs() []*types.BuildJob
	CancelJob(id string) bool
	UpdateJobProgress(id string, progress, total int, currentFile string)
	SetJobStatus(id string, status types.JobStatus, errorMsg string)
}

// buildQueue runs catalog builds one at a time. Every job gets a generation;
// a build only publishes when no newer build was requested meanwhile.
type buildQueue struct {
	logger  *zap.Logger
	builder CatalogBuilder
	store   *CatalogStore
	hub     websocket.Hub

	jobs      map[string]*types.BuildJob
	queue     chan *types.BuildJob
	mu        sync.RWMutex
	requested atomic.Uint64 // last generation handed out
}

// NewBuildQueue creates a new build queue. hub may be nil.
func NewBuildQueue(logger *zap.Logger, builder CatalogBuilder, store *CatalogStore, hub websocket.Hub) BuildQueue {
	return &buildQueue{
		logger:  logger,
		builder: builder,
		store:   store,
		hub:     hub,
		jobs:    make(map[string]*types.BuildJob),
		queue:   make(chan *types.BuildJob, 16),
	}
}

// AddJob requests a new catalog build
func (q *buildQueue) AddJob() *types.BuildJob {
	q.mu.Lock()
	job := &types.BuildJob{
		ID:         uuid.New().String(),
		Type:       types.JobTypeCatalogBuild,
		Status:     types.JobStatusQueued,
		Generation: q.requested.Add(1),
		CreatedAt:  time.Now(),
	}
	q.jobs[job.ID] = job
	snapshot := copyJob(job)
	q.mu.Unlock()

	q.queue <- job

	return snapshot
}

// GetJob retrieves a snapshot of a job by ID
func (q *buildQueue) GetJob(id string) (*types.BuildJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, exists := q.jobs[id]
	if !exists {
		return nil, false
	}
	return copyJob(job), true
}

// GetAllJobs returns snapshots of all jobs, oldest first
func (q *buildQueue) GetAllJobs() []*types.BuildJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*types.BuildJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		jobs = append(jobs, copyJob(job))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Generation < jobs[j].Generation
	})
	return jobs
}

// CancelJob cancels a queued job
func (q *buildQueue) CancelJob(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.jobs[id]
	if !exists || job.Status != types.JobStatusQueued {
		return false
	}

	job.Status = types.JobStatusCancelled
	now := time.Now()
	job.CompletedAt = &now
	return true
}

// UpdateJobProgress updates job progress
func (q *buildQueue) UpdateJobProgress(id string, progress, total int, currentFile string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.jobs[id]
	if !exists {
		return
	}
	job.Progress = progress
	job.Total = total

	if q.hub != nil && total > 0 {
		q.hub.BroadcastProgress(types.ProgressMessage{
			JobID:       id,
			Type:        "progress",
			Progress:    float64(progress) / float64(total) * 100,
			Status:      string(job.Status),
			CurrentFile: currentFile,
			Message:     fmt.Sprintf("Processed %d of %d files", progress, total),
		})
	}
}

// SetJobStatus updates job status
func (q *buildQueue) SetJobStatus(id string, status types.JobStatus, errorMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	switch status {
	case types.JobStatusProcessing:
		if job.StartedAt == nil {
			job.StartedAt = &now
		}
	case types.JobStatusCompleted, types.JobStatusFailed, types.JobStatusCancelled, types.JobStatusSuperseded:
		job.CompletedAt = &now
	}

	if q.hub == nil {
		return
	}

	msg := types.ProgressMessage{
		JobID:   id,
		Type:    "status",
		Status:  string(status),
		Message: string(status),
	}
	if job.Total > 0 {
		msg.Progress = float64(job.Progress) / float64(job.Total) * 100
	}
	switch status {
	case types.JobStatusCompleted:
		msg.Type = "complete"
		msg.Progress = 100.0
		msg.Message = fmt.Sprintf("Catalog ready with %d tracks", job.Entries)
	case types.JobStatusFailed:
		msg.Type = "error"
		msg.Message = errorMsg
	case types.JobStatusProcessing:
		msg.Message = "Scanning library"
	}
	q.hub.BroadcastProgress(msg)
}

// Start begins processing jobs until ctx is done
func (q *buildQueue) Start(ctx context.Context) {
	go q.worker(ctx)
}

// worker processes jobs one at a time, so builds never overlap
func (q *buildQueue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.queue:
			q.process(ctx, job)
		}
	}
}

func (q *buildQueue) process(ctx context.Context, job *types.BuildJob) {
	q.mu.RLock()
	cancelled := job.Status == types.JobStatusCancelled
	q.mu.RUnlock()
	if cancelled {
		return
	}

	if q.isStale(job) {
		q.supersede(job)
		return
	}

	q.SetJobStatus(job.ID, types.JobStatusProcessing, "")

	catalog, err := q.builder.Build(ctx, func(done, total int, current string) {
		q.UpdateJobProgress(job.ID, done, total, current)
	})

	if q.isStale(job) {
		q.supersede(job)
		return
	}

	// A failed enumeration still publishes the empty catalog so the player
	// leaves its loading state.
	q.store.Publish(job.Generation, catalog)

	q.mu.Lock()
	job.Entries = len(catalog)
	q.mu.Unlock()

	if err != nil {
		metrics.CatalogBuildsTotal.WithLabelValues("failed").Inc()
		q.SetJobStatus(job.ID, types.JobStatusFailed, err.Error())
		q.logger.Error("Catalog build failed", zap.String("job", job.ID), zap.Error(err))
		return
	}

	metrics.CatalogBuildsTotal.WithLabelValues("completed").Inc()
	q.SetJobStatus(job.ID, types.JobStatusCompleted, "")
	q.logger.Info("Catalog build completed", zap.String("job", job.ID), zap.Int("entries", len(catalog)))
}

// isStale reports whether a newer, not cancelled build has been requested
func (q *buildQueue) isStale(job *types.BuildJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, other := range q.jobs {
		if other.Generation > job.Generation && other.Status != types.JobStatusCancelled {
			return true
		}
	}
	return false
}

func (q *buildQueue) supersede(job *types.BuildJob) {
	metrics.CatalogBuildsTotal.WithLabelValues("superseded").Inc()
	q.SetJobStatus(job.ID, types.JobStatusSuperseded, "")
	q.logger.Info("Catalog build superseded", zap.String("job", job.ID), zap.Uint64("generation", job.Generation))
}

func copyJob(job *types.BuildJob) *types.BuildJob {
	c := *job
	return &c
}

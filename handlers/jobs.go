package handlers

import (
	"net/http"

	"a4blend/services"
	"a4blend/types"
	"a4blend/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobHandler handles catalog build job endpoints
type JobHandler struct {
	logger *zap.Logger
	queue  services.BuildQueue
	hub    websocket.Hub
}

// NewJobHandler creates a new job handler
func NewJobHandler(logger *zap.Logger, queue services.BuildQueue, hub websocket.Hub) *JobHandler {
	return &JobHandler{
		logger: logger,
		queue:  queue,
		hub:    hub,
	}
}

// GetAllJobs returns all build jobs
func (h *JobHandler) GetAllJobs(c *gin.Context) {
	jobs := h.queue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific build job by ID
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	job, exists := h.queue.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a queued build job
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	if !h.queue.CancelJob(jobID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocket streams build progress for all jobs
func (h *JobHandler) HandleWebSocket(c *gin.Context) {
	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, types.TopicJobs, h.logger, nil)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

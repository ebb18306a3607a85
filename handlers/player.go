package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"a4blend/player"
	"a4blend/types"
	"a4blend/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlayerHandler exposes the playback controller over REST and WebSocket
type PlayerHandler struct {
	logger     *zap.Logger
	controller *player.Controller
	hub        websocket.Hub
}

// NewPlayerHandler creates a new player handler. It registers itself with
// the hub and the controller, so it must be created before either runs.
func NewPlayerHandler(logger *zap.Logger, controller *player.Controller, hub websocket.Hub) *PlayerHandler {
	h := &PlayerHandler{
		logger:     logger,
		controller: controller,
		hub:        hub,
	}

	hub.OnConnect(types.TopicPlayer, func(client *websocket.Client) {
		for _, msg := range syncMessages(logger, controller.State()) {
			client.Send(msg)
		}
	})
	controller.OnChange(func(s player.State) {
		hub.Broadcast(types.TopicPlayer, MessageState, s.View())
	})

	return h
}

// GetState returns the current player state
func (h *PlayerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State().View())
}

// TogglePlayPause flips between playing and paused
func (h *PlayerHandler) TogglePlayPause(c *gin.Context) {
	h.apply(c, player.TogglePlayPause())
}

// Next advances to the following track
func (h *PlayerHandler) Next(c *gin.Context) {
	h.apply(c, player.Next())
}

// Previous steps back to the preceding track
func (h *PlayerHandler) Previous(c *gin.Context) {
	h.apply(c, player.Previous())
}

// ToggleMute switches between silent and full volume
func (h *PlayerHandler) ToggleMute(c *gin.Context) {
	h.apply(c, player.ToggleMute())
}

// Select plays the search result at position :pos
func (h *PlayerHandler) Select(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid position",
			"details": err.Error(),
		})
		return
	}
	h.apply(c, player.SelectFromSearch(pos))
}

// SeekRequest is the body of a seek call; ratio is clamped to [0, 1]
type SeekRequest struct {
	Ratio *float64 `json:"ratio" binding:"required"`
}

// Seek jumps to a fraction of the current track
func (h *PlayerHandler) Seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid seek request",
			"details": err.Error(),
		})
		return
	}
	h.apply(c, player.Seek(*req.Ratio))
}

// VolumeRequest is the body of a volume call; volume is clamped to [0, 1]
type VolumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

// SetVolume changes the playback volume
func (h *PlayerHandler) SetVolume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid volume request",
			"details": err.Error(),
		})
		return
	}
	h.apply(c, player.SetVolume(*req.Volume))
}

// QueryRequest is the body of a query call. An empty query shows every track.
type QueryRequest struct {
	Query string `json:"query"`
}

// SetQuery filters the track list
func (h *PlayerHandler) SetQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid query request",
			"details": err.Error(),
		})
		return
	}
	h.apply(c, player.SetQuery(req.Query))
}

func (h *PlayerHandler) apply(c *gin.Context, ev player.Event) {
	state, err := h.controller.Apply(c.Request.Context(), ev)
	if err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, player.ErrStopped) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{
			"error":   "player unavailable",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, state.View())
}

// HandleWebSocket connects a browser media element to the controller. The
// browser receives commands and state; it sends sink events and user commands.
func (h *PlayerHandler) HandleWebSocket(c *gin.Context) {
	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, types.TopicPlayer, h.logger, h.handleMessage)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

func (h *PlayerHandler) handleMessage(client *websocket.Client, msg types.Message) {
	ev, err := DecodePlayerEvent(msg)
	if err != nil {
		h.logger.Warn("Ignoring player message", zap.String("client", client.ID()), zap.Error(err))
		return
	}
	if err := h.controller.Dispatch(ev); err != nil {
		h.logger.Warn("Player event dropped", zap.Stringer("event", ev.Kind), zap.Error(err))
	}
}

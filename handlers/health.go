package handlers

import (
	"net/http"
	"time"

	"a4blend/player"
	"a4blend/services"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	library    *services.Library
	store      *services.CatalogStore
	controller *player.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(library *services.Library, store *services.CatalogStore, controller *player.Controller) *HealthHandler {
	return &HealthHandler{
		library:    library,
		store:      store,
		controller: controller,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "a4blend",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	catalog, ready := h.store.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"message":          "a4blend API is running",
		"library_location": h.library.Root(),
		"catalog_ready":    ready,
		"catalog_entries":  len(catalog),
		"player":           h.controller.State().Phase().String(),
	})
}

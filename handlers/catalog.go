package handlers

import (
	"net/http"

	"a4blend/services"
	"a4blend/types"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the published catalog and catalog rebuilds
type CatalogHandler struct {
	store         *services.CatalogStore
	queue         services.BuildQueue
	fallbackCover string
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(store *services.CatalogStore, queue services.BuildQueue, fallbackCover string) *CatalogHandler {
	return &CatalogHandler{
		store:         store,
		queue:         queue,
		fallbackCover: fallbackCover,
	}
}

// GetCatalog returns the published catalog. ready stays false until the
// first build finished.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	catalog, ready := h.store.Catalog()
	if catalog == nil {
		catalog = types.Catalog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":       catalog,
		"count":         len(catalog),
		"ready":         ready,
		"generation":    h.store.Generation(),
		"fallbackCover": h.fallbackCover,
	})
}

// Rebuild queues a new catalog build
func (h *CatalogHandler) Rebuild(c *gin.Context) {
	job := h.queue.AddJob()
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Catalog rebuild queued",
		"job":     job,
	})
}

package handlers

import (
	"net/http"

	"a4blend/player"
	"a4blend/services"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	store      *services.CatalogStore
	controller *player.Controller
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(store *services.CatalogStore, controller *player.Controller) *SearchHandler {
	return &SearchHandler{
		store:      store,
		controller: controller,
	}
}

type searchResult struct {
	Position int    `json:"position"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Src      string `json:"src"`
	Cover    string `json:"cover"`
	Current  bool   `json:"current"`
}

// Search filters the catalog by title without touching the player's query.
// An empty query returns every entry.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	catalog, _ := h.store.Catalog()
	current := h.controller.State().Current

	indices := services.ComputeIndex(catalog, query)
	results := make([]searchResult, 0, len(indices))
	for pos, idx := range indices {
		entry := catalog[idx]
		results = append(results, searchResult{
			Position: pos,
			Index:    idx,
			Title:    entry.Title,
			Src:      entry.SourceRef,
			Cover:    entry.Cover,
			Current:  idx == current,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"indices": indices,
		"results": results,
	})
}

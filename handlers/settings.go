package handlers

import (
	"net/http"

	"a4blend/config"
	"a4blend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	logger       *zap.Logger
	settingsPath string
	library      *services.Library
	queue        services.BuildQueue
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(logger *zap.Logger, settingsPath string, library *services.Library, queue services.BuildQueue) *SettingsHandler {
	return &SettingsHandler{
		logger:       logger,
		settingsPath: settingsPath,
		library:      library,
		queue:        queue,
	}
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := config.LoadSettings(h.settingsPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load settings",
			"details": err.Error(),
		})
		return
	}

	// Env and config file may point elsewhere than the saved file
	settings.LibraryLocation = h.library.Root()
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings saves new settings. A changed library location triggers
// a catalog rebuild.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var newSettings config.UserSettings
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if err := config.ValidateLibraryLocation(newSettings.LibraryLocation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid library location",
			"details": err.Error(),
		})
		return
	}

	if err := config.SaveSettings(h.settingsPath, &newSettings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	response := gin.H{
		"message":  "Settings updated successfully",
		"settings": newSettings,
	}
	if newSettings.LibraryLocation != h.library.Root() {
		h.library.SetRoot(newSettings.LibraryLocation)
		job := h.queue.AddJob()
		h.logger.Info("Library location changed",
			zap.String("location", newSettings.LibraryLocation),
			zap.String("job", job.ID))
		response["job"] = job
	}

	c.JSON(http.StatusOK, response)
}

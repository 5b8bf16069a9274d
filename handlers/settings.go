package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidsnatch/config"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	settings *config.Settings
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *config.Settings) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

// UpdateSettings updates the user settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var newSettings config.UserSettings
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if err := h.settings.SetDownloadDir(newSettings.DownloadLocation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid download location",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Settings updated successfully",
		"settings": h.settings.Get(),
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vidsnatch/services"
)

// Version is reported by the health endpoint
var Version = "dev"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	registry    services.Registry
	downloadDir func() string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reg services.Registry, downloadDir func() string) *HealthHandler {
	return &HealthHandler{registry: reg, downloadDir: downloadDir}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "vidsnatch",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns download counts and the download folder
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":           "vidsnatch is running",
		"download_location": h.downloadDir(),
		"downloads":         h.registry.Stats(),
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidsnatch/logger"
	"vidsnatch/services"
	"vidsnatch/types"
	"vidsnatch/websocket"
)

// DownloadHandler handles download management endpoints
type DownloadHandler struct {
	registry services.Registry
	hub      websocket.Hub
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(reg services.Registry, hub websocket.Hub) *DownloadHandler {
	return &DownloadHandler{
		registry: reg,
		hub:      hub,
	}
}

// Submit starts a download, or reports a failed duplicate of the URL
func (h *DownloadHandler) Submit(c *gin.Context) {
	var req types.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "No URL provided")
		return
	}

	resp, err := h.registry.Submit(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns active and failed downloads
func (h *DownloadHandler) List(c *gin.Context) {
	downloads := h.registry.List()
	if downloads == nil {
		downloads = []types.DownloadEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"downloads": downloads,
		"total":     len(downloads),
	})
}

// Progress returns the last known state of a download
func (h *DownloadHandler) Progress(c *gin.Context) {
	progress, err := h.registry.Progress(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Cancel requests cancellation of a running download
func (h *DownloadHandler) Cancel(c *gin.Context) {
	if err := h.registry.Cancel(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Download cancellation requested",
	})
}

// Retry restarts a failed or cancelled download
func (h *DownloadHandler) Retry(c *gin.Context) {
	resp, err := h.registry.Retry(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a download and its partial files
func (h *DownloadHandler) Delete(c *gin.Context) {
	removed, err := h.registry.Delete(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Download deleted",
		"deletedFiles": removed,
	})
}

// Clear removes a finished download from the list without touching files
func (h *DownloadHandler) Clear(c *gin.Context) {
	if err := h.registry.Clear(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Download cleared",
	})
}

// HandleWebSocketConnection streams progress for one download
func (h *DownloadHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := h.registry.Progress(jobID); errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	h.upgrade(c, jobID)
}

// HandleWebSocketAllConnection streams progress for every download
func (h *DownloadHandler) HandleWebSocketAllConnection(c *gin.Context) {
	h.upgrade(c, websocket.AllJobs)
}

func (h *DownloadHandler) upgrade(c *gin.Context, jobID string) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, jobID)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

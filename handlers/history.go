package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vidsnatch/fuzzy"
	"vidsnatch/logger"
	"vidsnatch/store"
	"vidsnatch/types"
)

// HistoryHandler handles the URL history endpoints
type HistoryHandler struct {
	history     *store.HistoryStore
	defaultDays int
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *store.HistoryStore, defaultDays int) *HistoryHandler {
	return &HistoryHandler{history: history, defaultDays: defaultDays}
}

// List returns the URL history, optionally filtered by status and query
func (h *HistoryHandler) List(c *gin.Context) {
	status := types.HistoryStatus(c.Query("status"))
	switch status {
	case "", types.HistoryPending, types.HistoryDownloading, types.HistoryCompleted, types.HistoryFailed:
	default:
		respondError(c, http.StatusBadRequest, "status must be one of pending, downloading, completed, failed")
		return
	}

	entries := h.history.List(status)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		entries = filterHistory(entries, q)
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}

// filterHistory keeps entries whose title matches q or whose URL contains it
func filterHistory(entries []types.HistoryEntry, q string) []types.HistoryEntry {
	lower := strings.ToLower(q)
	var out []types.HistoryEntry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.URL), lower) || fuzzy.Similarity(q, e.Title) >= fuzzy.Threshold {
			out = append(out, e)
		}
	}
	return out
}

// Cleanup removes completed entries older than ?days=
func (h *HistoryHandler) Cleanup(c *gin.Context) {
	days := h.defaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}

	removed, err := h.history.CleanupCompleted(time.Now().AddDate(0, 0, -days))
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Error("history cleanup failed")
		respondError(c, http.StatusInternalServerError, "failed to clean up history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
		"days":    days,
	})
}

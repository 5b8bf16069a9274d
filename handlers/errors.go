package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidsnatch/logger"
	"vidsnatch/services"
)

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

// respondServiceError maps registry and file errors onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyURL),
		errors.Is(err, services.ErrNotRetryable),
		errors.Is(err, services.ErrNotClearable),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrNotPartial):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrOutsideDir):
		respondError(c, http.StatusForbidden, err.Error())
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

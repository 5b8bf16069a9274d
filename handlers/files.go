package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vidsnatch/fuzzy"
	"vidsnatch/logger"
	"vidsnatch/services"
	"vidsnatch/types"
)

// FileHandler handles file management endpoints
type FileHandler struct {
	fileService services.FileService
	registry    services.Registry
	downloadDir func() string
}

// NewFileHandler creates a new file handler
func NewFileHandler(fs services.FileService, reg services.Registry, downloadDir func() string) *FileHandler {
	return &FileHandler{
		fileService: fs,
		registry:    reg,
		downloadDir: downloadDir,
	}
}

// Resolve finds the download a partial file most likely belongs to
func (h *FileHandler) Resolve(c *gin.Context) {
	var req types.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "filename is required")
		return
	}
	c.JSON(http.StatusOK, h.registry.Resolve(req.Filename))
}

// ListFiles returns the finished files in the download folder
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.fileService.ListVideos(h.downloadDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusOK, gin.H{"files": []types.VideoFile{}, "count": 0})
			return
		}
		logger.FromContext(c.Request.Context()).WithError(err).Error("failed to scan download folder")
		respondError(c, http.StatusInternalServerError, "failed to scan files")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

// ListPartials returns the partial files with the download each one matches
func (h *FileHandler) ListPartials(c *gin.Context) {
	partials, err := h.fileService.ListPartials(h.downloadDir())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.FromContext(c.Request.Context()).WithError(err).Error("failed to scan download folder")
		respondError(c, http.StatusInternalServerError, "failed to scan files")
		return
	}
	if partials == nil {
		partials = []types.PartialFile{}
	}

	for i := range partials {
		if match := h.registry.Resolve(partials[i].Name); match.Found {
			partials[i].Match = &match
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"partials": partials,
		"count":    len(partials),
	})
}

// DeletePartial removes one partial file
func (h *FileHandler) DeletePartial(c *gin.Context) {
	name := c.Param("name")
	if err := h.fileService.DeletePartial(h.downloadDir(), name); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %s", name),
	})
}

// StreamFile streams a finished video with support for range requests
func (h *FileHandler) StreamFile(c *gin.Context) {
	requestedPath := strings.TrimPrefix(c.Param("path"), "/")
	log := logger.FromContext(c.Request.Context()).WithField(logger.FieldFile, requestedPath)

	if fuzzy.IsPartial(requestedPath) {
		respondError(c, http.StatusForbidden, "partial files cannot be streamed")
		return
	}

	fullPath, err := h.fileService.ResolvePath(h.downloadDir(), requestedPath)
	if err != nil {
		respondError(c, http.StatusForbidden, err.Error())
		return
	}

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, "file not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "file access error")
		return
	}
	if fileInfo.IsDir() {
		respondError(c, http.StatusBadRequest, "path is a directory, not a file")
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer file.Close()

	c.Header("Content-Type", h.fileService.GetContentType(requestedPath))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		start, end, ok := parseRange(rangeHeader, fileInfo.Size())
		if !ok {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", fileInfo.Size()))
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to seek file")
			return
		}

		length := end - start + 1
		c.Header("Content-Length", strconv.FormatInt(length, 10))
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileInfo.Size()))
		c.Status(http.StatusPartialContent)
		if _, err := io.CopyN(c.Writer, file, length); err != nil {
			log.WithError(err).Debug("range stream interrupted")
		}
		return
	}

	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.WithError(err).Debug("stream interrupted")
	}
}

// parseRange parses a single "bytes=start-end" range, including the
// suffix form "bytes=-N".
func parseRange(header string, size int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false
	}
	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	var err error
	switch {
	case first == "" && last == "":
		return 0, 0, false
	case first == "":
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		start, end = size-n, size-1
	default:
		start, err = strconv.ParseInt(first, 10, 64)
		if err != nil || start < 0 {
			return 0, 0, false
		}
		end = size - 1
		if last != "" {
			end, err = strconv.ParseInt(last, 10, 64)
			if err != nil || end < start {
				return 0, 0, false
			}
		}
	}

	if start >= size {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	return start, end, true
}

package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsnatch/types"
)

// setupMockServer answers the client calls with canned responses
func setupMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/api/downloads", func(c *gin.Context) {
		var req types.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No URL provided"})
			return
		}
		c.JSON(http.StatusOK, types.SubmitResponse{Success: true, DownloadID: "job-1"})
	})
	r.GET("/api/downloads/:id", func(c *gin.Context) {
		if c.Param("id") != "job-1" {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "download not found"})
			return
		}
		c.JSON(http.StatusOK, types.ProgressResponse{ID: "job-1", Status: types.JobStatusDownloading, Percent: 12.5})
	})
	r.DELETE("/api/downloads/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "deletedFiles": []string{"a.mp4.part"}})
	})
	r.GET("/api/history", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entries": []types.HistoryEntry{{
			ID:     "h1",
			URL:    c.Query("q"),
			Status: types.HistoryStatus(c.Query("status")),
		}}})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestClientSubmit(t *testing.T) {
	client := newClient(setupMockServer(t).URL)

	resp, err := client.Submit(context.Background(), types.SubmitRequest{URL: "https://example.com/v"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "job-1", resp.DownloadID)

	_, err = client.Submit(context.Background(), types.SubmitRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No URL provided (HTTP 400)")
}

func TestClientProgress(t *testing.T) {
	client := newClient(setupMockServer(t).URL)

	progress, err := client.Progress(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusDownloading, progress.Status)
	assert.Equal(t, 12.5, progress.Percent)

	_, err = client.Progress(context.Background(), "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download not found (HTTP 404)")
}

func TestClientDeleteReturnsFiles(t *testing.T) {
	client := newClient(setupMockServer(t).URL)

	files, err := client.Delete(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4.part"}, files)
}

func TestClientHistoryQuery(t *testing.T) {
	client := newClient(setupMockServer(t).URL)

	entries, err := client.History(context.Background(), "failed", "cats & dogs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cats & dogs", entries[0].URL)
	assert.Equal(t, types.HistoryFailed, entries[0].Status)
}

func TestClientServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	_, err := newClient(base).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server not reachable")
}

func TestClientErrorWithoutBody(t *testing.T) {
	client := newClient(setupMockServer(t).URL)

	err := client.Cancel(context.Background(), "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

package handlers

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsnatch/config"
	"vidsnatch/store"
	"vidsnatch/types"
	ws "vidsnatch/websocket"
)

// TestHealthEndpoint tests the basic health check endpoint
func TestHealthEndpoint(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/health", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "vidsnatch", response["service"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStatusEndpointReportsCounts(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	id := helper.Submit(t, "https://example.com/running")
	helper.WaitForStatus(t, id, types.JobStatusDownloading, 2*time.Second)

	var response struct {
		DownloadLocation string      `json:"download_location"`
		Downloads        types.Stats `json:"downloads"`
	}
	resp := helper.GetJSON(t, "/status", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, helper.TestDataDir, response.DownloadLocation)
	assert.Equal(t, 1, response.Downloads.Active)
	assert.Equal(t, 1, response.Downloads.History)
}

// TestDownloadWorkflow submits a URL and follows it to completion
func TestDownloadWorkflow(t *testing.T) {
	helper := NewTestHelper(t, completingEngine("Workflow Video"))

	id := helper.Submit(t, "https://example.com/workflow")
	progress := helper.WaitForStatus(t, id, types.JobStatusCompleted, 2*time.Second)

	assert.Equal(t, 100.0, progress.Percent)
	assert.Equal(t, "Workflow Video", progress.Title)
	assert.Equal(t, "https://example.com/workflow", progress.URL)
	helper.AssertFileExists(t, "Workflow Video.mp4")

	var list struct {
		Downloads []types.DownloadEntry `json:"downloads"`
		Total     int                   `json:"total"`
	}
	helper.GetJSON(t, "/api/downloads", &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, id, list.Downloads[0].ID)
	assert.Equal(t, types.JobStatusCompleted, list.Downloads[0].Status)
}

func TestSubmitValidation(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing url", map[string]string{"title": "x"}},
		{"empty url", map[string]string{"url": ""}},
		{"no body", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var response map[string]interface{}
			resp := helper.PostJSON(t, "/api/downloads", tt.body, &response)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, response["success"])
			assert.Equal(t, "No URL provided", response["error"])
		})
	}
}

func TestSubmitDuplicateOfFailedURL(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	_, err := helper.Stores.Failed.Record(store.NewFailedRecord("old", "https://example.com/bad", "Bad", "boom", 0, false, time.Now()))
	require.NoError(t, err)

	var response types.SubmitResponse
	resp := helper.PostJSON(t, "/api/downloads", types.SubmitRequest{URL: "https://example.com/bad"}, &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, response.Success)
	assert.True(t, response.IsDuplicate)
	assert.Equal(t, "old", response.ExistingDownloadID)
	assert.Equal(t, 1, response.RetryCount)
}

func TestProgressOfFailedRecord(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	_, err := helper.Stores.Failed.Record(store.NewFailedRecord("gone", "https://example.com/g", "Gone", "interrupted by restart", 0, false, time.Now()))
	require.NoError(t, err)

	var progress types.ProgressResponse
	resp := helper.GetJSON(t, "/api/downloads/gone", &progress)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.JobStatusFailed, progress.Status)
	assert.Equal(t, "interrupted by restart", progress.Error)

	var missing map[string]interface{}
	resp = helper.GetJSON(t, "/api/downloads/does-not-exist", &missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, missing, "error")
}

func TestCancelAndRetryEndpoints(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	id := helper.Submit(t, "https://example.com/cancel")
	helper.WaitForStatus(t, id, types.JobStatusDownloading, 2*time.Second)

	var response map[string]interface{}
	resp := helper.PostJSON(t, "/api/downloads/"+id+"/retry", nil, &response)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = helper.PostJSON(t, "/api/downloads/"+id+"/clear", nil, &response)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = helper.PostJSON(t, "/api/downloads/"+id+"/cancel", nil, &response)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, response["success"])
	helper.WaitForStatus(t, id, types.JobStatusCancelled, 2*time.Second)

	resp = helper.PostJSON(t, "/api/downloads/"+id+"/cancel", nil, &response)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var retry types.RetryResponse
	resp = helper.PostJSON(t, "/api/downloads/"+id+"/retry", nil, &retry)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, retry.DownloadID)
	assert.Equal(t, 1, retry.RetryCount)
	helper.WaitForStatus(t, id, types.JobStatusDownloading, 2*time.Second)

	resp = helper.PostJSON(t, "/api/downloads/unknown/cancel", nil, &response)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = helper.PostJSON(t, "/api/downloads/unknown/retry", nil, &response)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAndClearEndpoints(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	helper.CreateTestFile(t, "Broken Upload.mp4.part", []byte("x"))
	_, err := helper.Stores.Failed.Record(store.NewFailedRecord("f1", "https://example.com/1", "Broken Upload", "boom", 0, false, time.Now()))
	require.NoError(t, err)
	_, err = helper.Stores.Failed.Record(store.NewFailedRecord("f2", "https://example.com/2", "Other", "boom", 0, false, time.Now()))
	require.NoError(t, err)

	var deleted struct {
		Success      bool     `json:"success"`
		DeletedFiles []string `json:"deletedFiles"`
	}
	resp := helper.DoJSON(t, http.MethodDelete, "/api/downloads/f1", nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, deleted.Success)
	assert.Equal(t, []string{"Broken Upload.mp4.part"}, deleted.DeletedFiles)
	helper.AssertFileNotExists(t, "Broken Upload.mp4.part")

	var cleared map[string]interface{}
	resp = helper.PostJSON(t, "/api/downloads/f2/clear", nil, &cleared)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, helper.Stores.Failed.Len())

	resp = helper.DoJSON(t, http.MethodDelete, "/api/downloads/f1", nil, &cleared)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveEndpoint(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	historyID, err := helper.Stores.History.Add("https://example.com/cat", "Funny Cat Video", time.Now())
	require.NoError(t, err)

	var match types.ResolveResponse
	resp := helper.PostJSON(t, "/api/files/resolve", types.ResolveRequest{Filename: "Funny_Cat_Video.f137.mp4.part"}, &match)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, match.Found)
	assert.Equal(t, types.MatchSourceHistory, match.Source)
	assert.Equal(t, historyID, match.ID)
	assert.Equal(t, "https://example.com/cat", match.URL)

	resp = helper.PostJSON(t, "/api/files/resolve", types.ResolveRequest{Filename: "nothing alike.part"}, &match)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, match.Found)

	var bad map[string]interface{}
	resp = helper.PostJSON(t, "/api/files/resolve", map[string]string{}, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestFileListing tests the download folder endpoints
func TestFileListing(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	helper.CreateTestFile(t, "clip.mp4", []byte("0123456789"))
	helper.CreateTestFile(t, "Funny Cat Video.mp4.part", []byte("xx"))
	_, err := helper.Stores.History.Add("https://example.com/cat", "Funny Cat Video", time.Now())
	require.NoError(t, err)

	var files struct {
		Files []types.VideoFile `json:"files"`
		Count int               `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/files", &files)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, files.Count)
	assert.Equal(t, "clip.mp4", files.Files[0].Name)
	assert.Equal(t, "mp4", files.Files[0].Format)

	var partials struct {
		Partials []types.PartialFile `json:"partials"`
		Count    int                 `json:"count"`
	}
	resp = helper.GetJSON(t, "/api/files/partials", &partials)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, partials.Count)
	require.NotNil(t, partials.Partials[0].Match)
	assert.Equal(t, "https://example.com/cat", partials.Partials[0].Match.URL)

	var response map[string]interface{}
	resp = helper.DoJSON(t, http.MethodDelete, "/api/files/partials/clip.mp4", nil, &response)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	helper.AssertFileExists(t, "clip.mp4")

	resp = helper.DoJSON(t, http.MethodDelete, "/api/files/partials/"+url.PathEscape("Funny Cat Video.mp4.part"), nil, &response)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	helper.AssertFileNotExists(t, "Funny Cat Video.mp4.part")
}

func TestFileListingMissingFolder(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	require.NoError(t, helper.Settings.SetDownloadDir(filepath.Join(helper.TestDataDir, "fresh")))
	require.NoError(t, os.RemoveAll(filepath.Join(helper.TestDataDir, "fresh")))

	var files struct {
		Count int `json:"count"`
	}
	resp := helper.GetJSON(t, "/api/files", &files)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, files.Count)
}

func TestStreamFile(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	helper.CreateTestFile(t, "clip.mp4", []byte("0123456789"))
	helper.CreateTestFile(t, "clip.webm.part", []byte("partial"))

	tests := []struct {
		name         string
		path         string
		rangeHeader  string
		wantStatus   int
		wantBody     string
		contentRange string
	}{
		{"whole file", "clip.mp4", "", http.StatusOK, "0123456789", ""},
		{"range", "clip.mp4", "bytes=2-5", http.StatusPartialContent, "2345", "bytes 2-5/10"},
		{"open range", "clip.mp4", "bytes=7-", http.StatusPartialContent, "789", "bytes 7-9/10"},
		{"suffix range", "clip.mp4", "bytes=-3", http.StatusPartialContent, "789", "bytes 7-9/10"},
		{"unsatisfiable", "clip.mp4", "bytes=20-", http.StatusRequestedRangeNotSatisfiable, "", "bytes */10"},
		{"partial file", "clip.webm.part", "", http.StatusForbidden, "", ""},
		{"missing", "nope.mp4", "", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.rangeHeader != "" {
				headers = []string{"Range", tt.rangeHeader}
			}
			resp := helper.MakeRequest(t, http.MethodGet, "/api/files/stream/"+tt.path, nil, headers...)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.contentRange != "" {
				assert.Equal(t, tt.contentRange, resp.Header.Get("Content-Range"))
			}
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
				assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header     string
		start, end int64
		ok         bool
	}{
		{"bytes=0-0", 0, 0, true},
		{"bytes=0-99", 0, 99, true},
		{"bytes=50-", 50, 99, true},
		{"bytes=90-200", 90, 99, true},
		{"bytes=-10", 90, 99, true},
		{"bytes=-500", 0, 99, true},
		{"bytes=100-", 0, 0, false},
		{"bytes=5-2", 0, 0, false},
		{"bytes=-", 0, 0, false},
		{"bytes=0-1,4-5", 0, 0, false},
		{"items=0-5", 0, 0, false},
		{"bytes=x-5", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			start, end, ok := parseRange(tt.header, 100)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.start, start)
				assert.Equal(t, tt.end, end)
			}
		})
	}
}

func TestHistoryEndpoints(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	oldID, err := helper.Stores.History.Add("https://example.com/old", "Old Concert Recording", time.Now())
	require.NoError(t, err)
	require.NoError(t, helper.Stores.History.MarkCompleted(oldID, time.Now().AddDate(0, 0, -60)))
	_, err = helper.Stores.History.Add("https://videos.example.org/new", "Brand New Trailer", time.Now())
	require.NoError(t, err)

	var history struct {
		Entries []types.HistoryEntry `json:"entries"`
		Total   int                  `json:"total"`
	}
	resp := helper.GetJSON(t, "/api/history", &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, history.Total)

	helper.GetJSON(t, "/api/history?status=completed", &history)
	require.Equal(t, 1, history.Total)
	assert.Equal(t, oldID, history.Entries[0].ID)

	helper.GetJSON(t, "/api/history?q=videos.example.org", &history)
	require.Equal(t, 1, history.Total)
	assert.Equal(t, "Brand New Trailer", history.Entries[0].Title)

	helper.GetJSON(t, "/api/history?q="+url.QueryEscape("brand new trailer"), &history)
	assert.Equal(t, 1, history.Total)

	var bad map[string]interface{}
	resp = helper.GetJSON(t, "/api/history?status=bogus", &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var cleanup struct {
		Removed int `json:"removed"`
		Days    int `json:"days"`
	}
	resp = helper.PostJSON(t, "/api/history/cleanup", nil, &cleanup)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, cleanup.Removed)
	assert.Equal(t, 30, cleanup.Days)

	resp = helper.PostJSON(t, "/api/history/cleanup?days=-1", nil, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsEndpoints(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)

	var current config.UserSettings
	resp := helper.GetJSON(t, "/api/settings", &current)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, helper.TestDataDir, current.DownloadLocation)

	next := filepath.Join(helper.TestDataDir, "elsewhere")
	var updated map[string]interface{}
	resp = helper.DoJSON(t, http.MethodPut, "/api/settings", config.UserSettings{DownloadLocation: next}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, next, helper.Settings.DownloadDir())

	helper.CreateTestFile(t, "not-a-dir", []byte("x"))
	resp = helper.DoJSON(t, http.MethodPut, "/api/settings", config.UserSettings{DownloadLocation: filepath.Join(helper.TestDataDir, "not-a-dir")}, &updated)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, next, helper.Settings.DownloadDir())
}

// TestWebSocketJobConnection follows one download over its websocket
func TestWebSocketJobConnection(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	id := helper.Submit(t, "https://example.com/ws")
	helper.WaitForStatus(t, id, types.JobStatusDownloading, 2*time.Second)

	conn := helper.ConnectWebSocket(t, "/api/ws/downloads/"+id, id)

	var response map[string]interface{}
	resp := helper.PostJSON(t, "/api/downloads/"+id+"/cancel", nil, &response)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg types.ProgressMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, id, msg.JobID)
		if msg.Status == types.JobStatusCancelled {
			assert.Equal(t, "status", msg.Type)
			break
		}
	}
}

// TestWebSocketGlobalConnection tests the feed of every download
func TestWebSocketGlobalConnection(t *testing.T) {
	helper := NewTestHelper(t, completingEngine("Global Video"))
	conn := helper.ConnectWebSocket(t, "/api/ws/downloads", ws.AllJobs)

	id := helper.Submit(t, "https://example.com/global")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	seen := map[string]bool{}
	for !seen["complete"] {
		var msg types.ProgressMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, id, msg.JobID)
		assert.GreaterOrEqual(t, msg.Percent, 0.0)
		assert.LessOrEqual(t, msg.Percent, 100.0)
		seen[msg.Type] = true
	}
	assert.True(t, seen["status"])
}

// TestWebSocketInvalidJob tests connecting to an unknown download
func TestWebSocketInvalidJob(t *testing.T) {
	helper := NewTestHelper(t, waitingEngine)
	wsURL := "ws" + helper.Server.URL[len("http"):] + "/api/ws/downloads/missing"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

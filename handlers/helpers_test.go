package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsnatch/config"
	"vidsnatch/engine"
	"vidsnatch/logger"
	"vidsnatch/middleware"
	"vidsnatch/services"
	"vidsnatch/store"
	"vidsnatch/types"
	ws "vidsnatch/websocket"
)

// TestHelper provides utilities for testing the vidsnatch API
type TestHelper struct {
	Server      *httptest.Server
	TestDataDir string
	Router      *gin.Engine
	Stores      *store.Stores
	Registry    services.Registry
	Hub         ws.Hub
	Settings    *config.Settings
}

// NewTestHelper creates a server over fresh stores in temporary folders
func NewTestHelper(t *testing.T, eng engine.Func) *TestHelper {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	downloadDir := t.TempDir()

	stores, err := store.Open(store.BackendJSON, dataDir)
	require.NoError(t, err)
	settings, err := config.LoadSettings(dataDir, downloadDir)
	require.NoError(t, err)

	log := logger.Discard()
	hub := ws.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	files := services.NewFileService(stores.Files, log)
	reg := services.NewRegistry(stores, eng, files, hub, log, services.Options{
		DownloadDir: settings.DownloadDir,
	})

	router := setupTestRouter(reg, hub, files, stores, settings)
	server := httptest.NewServer(router)

	helper := &TestHelper{
		Server:      server,
		TestDataDir: downloadDir,
		Router:      router,
		Stores:      stores,
		Registry:    reg,
		Hub:         hub,
		Settings:    settings,
	}
	t.Cleanup(func() {
		server.Close()
		reg.Shutdown()
		cancel()
		_ = stores.Close()
	})
	return helper
}

// setupTestRouter mirrors the production route table
func setupTestRouter(reg services.Registry, hub ws.Hub, files services.FileService, stores *store.Stores, settings *config.Settings) *gin.Engine {
	downloadHandler := NewDownloadHandler(reg, hub)
	fileHandler := NewFileHandler(files, reg, settings.DownloadDir)
	historyHandler := NewHistoryHandler(stores.History, 30)
	healthHandler := NewHealthHandler(reg, settings.DownloadDir)
	settingsHandler := NewSettingsHandler(settings)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.Logging(logger.Discard()))

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/status", healthHandler.APIStatus)

	api := r.Group("/api")
	api.POST("/downloads", downloadHandler.Submit)
	api.GET("/downloads", downloadHandler.List)
	api.GET("/downloads/:id", downloadHandler.Progress)
	api.POST("/downloads/:id/cancel", downloadHandler.Cancel)
	api.POST("/downloads/:id/retry", downloadHandler.Retry)
	api.POST("/downloads/:id/clear", downloadHandler.Clear)
	api.DELETE("/downloads/:id", downloadHandler.Delete)
	api.GET("/ws/downloads/:id", downloadHandler.HandleWebSocketConnection)
	api.GET("/ws/downloads", downloadHandler.HandleWebSocketAllConnection)
	api.GET("/files", fileHandler.ListFiles)
	api.POST("/files/resolve", fileHandler.Resolve)
	api.GET("/files/partials", fileHandler.ListPartials)
	api.DELETE("/files/partials/:name", fileHandler.DeletePartial)
	api.GET("/files/stream/*path", fileHandler.StreamFile)
	api.GET("/history", historyHandler.List)
	api.POST("/history/cleanup", historyHandler.Cleanup)
	api.GET("/settings", settingsHandler.GetSettings)
	api.PUT("/settings", settingsHandler.UpdateSettings)
	return r
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// DoJSON makes a request and unmarshals the JSON response into target
func (h *TestHelper) DoJSON(t *testing.T, method, path string, requestBody, target interface{}) *http.Response {
	t.Helper()
	resp := h.MakeRequest(t, method, path, requestBody)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}
	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	t.Helper()
	return h.DoJSON(t, http.MethodGet, path, nil, target)
}

// PostJSON makes a POST request with JSON body and unmarshals JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	t.Helper()
	return h.DoJSON(t, http.MethodPost, path, requestBody, target)
}

// Submit posts a URL and returns the new download id
func (h *TestHelper) Submit(t *testing.T, rawURL string) string {
	t.Helper()
	var resp types.SubmitResponse
	r := h.PostJSON(t, "/api/downloads", types.SubmitRequest{URL: rawURL}, &resp)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.True(t, resp.Success)
	return resp.DownloadID
}

// WaitForStatus polls the progress endpoint until the job reaches status
func (h *TestHelper) WaitForStatus(t *testing.T, id string, status types.JobStatus, timeout time.Duration) types.ProgressResponse {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		var progress types.ProgressResponse
		resp := h.GetJSON(t, "/api/downloads/"+id, &progress)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if progress.Status == status {
			return progress
		}
		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("download %s did not reach %s within %s", id, status, timeout)
	return types.ProgressResponse{}
}

// ConnectWebSocket connects to a WebSocket endpoint and waits until the hub
// has registered the client for key.
func (h *TestHelper) ConnectWebSocket(t *testing.T, path, key string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.Hub.ClientCount(key) > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

// AssertFileExists checks if a file exists in the download folder
func (h *TestHelper) AssertFileExists(t *testing.T, relativePath string) {
	_, err := os.Stat(filepath.Join(h.TestDataDir, relativePath))
	assert.NoError(t, err, "File should exist: %s", relativePath)
}

// AssertFileNotExists checks if a file does not exist
func (h *TestHelper) AssertFileNotExists(t *testing.T, relativePath string) {
	_, err := os.Stat(filepath.Join(h.TestDataDir, relativePath))
	assert.True(t, os.IsNotExist(err), "File should not exist: %s", relativePath)
}

// CreateTestFile creates a file in the download folder
func (h *TestHelper) CreateTestFile(t *testing.T, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(h.TestDataDir, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
}

// completingEngine writes title.mp4 and succeeds
func completingEngine(title string) engine.Func {
	return func(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
		events <- engine.Event{Status: engine.EventDownloading, DownloadedBytes: 5, TotalBytes: 10, Title: title}
		name := filepath.Join(req.OutputDir, title+".mp4")
		if err := os.WriteFile(name, []byte("0123456789"), 0o644); err != nil {
			return engine.Result{}, engine.Transfer(err)
		}
		return engine.Result{Filename: name, Title: title}, nil
	}
}

// waitingEngine reports progress and runs until stopped
func waitingEngine(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
	select {
	case events <- engine.Event{Status: engine.EventDownloading, DownloadedBytes: 1, TotalBytes: 4}:
	case <-ctx.Done():
	}
	<-ctx.Done()
	return engine.Result{}, engine.ErrCancelled
}

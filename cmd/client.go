package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"vidsnatch/config"
	"vidsnatch/types"
)

// apiClient talks to a running vidsnatch server
type apiClient struct {
	client *resty.Client
}

// apiError is the error body every handler returns
type apiError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var newAPIClient = func() (*apiClient, error) {
	base := serverURL
	if base == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		base = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	return newClient(base), nil
}

func newClient(baseURL string) *apiClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
	return &apiClient{client: client}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var apiErr apiError
	req := c.client.R().
		SetContext(ctx).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("server not reachable, is `vidsnatch serve` running? (%w)", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode())
		}
		return fmt.Errorf("server returned %d", resp.StatusCode())
	}
	return nil
}

func (c *apiClient) Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error) {
	var out types.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/downloads", req, &out)
	return out, err
}

func (c *apiClient) Progress(ctx context.Context, id string) (types.ProgressResponse, error) {
	var out types.ProgressResponse
	err := c.do(ctx, http.MethodGet, "/api/downloads/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) List(ctx context.Context) ([]types.DownloadEntry, error) {
	var out struct {
		Downloads []types.DownloadEntry `json:"downloads"`
	}
	err := c.do(ctx, http.MethodGet, "/api/downloads", nil, &out)
	return out.Downloads, err
}

func (c *apiClient) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/downloads/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *apiClient) Retry(ctx context.Context, id string) (types.RetryResponse, error) {
	var out types.RetryResponse
	err := c.do(ctx, http.MethodPost, "/api/downloads/"+url.PathEscape(id)+"/retry", nil, &out)
	return out, err
}

func (c *apiClient) Delete(ctx context.Context, id string) ([]string, error) {
	var out struct {
		DeletedFiles []string `json:"deletedFiles"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/downloads/"+url.PathEscape(id), nil, &out)
	return out.DeletedFiles, err
}

func (c *apiClient) Clear(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/downloads/"+url.PathEscape(id)+"/clear", nil, nil)
}

func (c *apiClient) Resolve(ctx context.Context, filename string) (types.ResolveResponse, error) {
	var out types.ResolveResponse
	err := c.do(ctx, http.MethodPost, "/api/files/resolve", types.ResolveRequest{Filename: filename}, &out)
	return out, err
}

func (c *apiClient) History(ctx context.Context, status, query string) ([]types.HistoryEntry, error) {
	var out struct {
		Entries []types.HistoryEntry `json:"entries"`
	}
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if query != "" {
		params.Set("q", query)
	}
	path := "/api/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Entries, err
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// YTDLP drives the yt-dlp binary through go-ytdlp
type YTDLP struct {
	// ProgressInterval throttles progress events
	ProgressInterval time.Duration
}

// NewYTDLP returns the yt-dlp engine
func NewYTDLP(progressInterval time.Duration) *YTDLP {
	if progressInterval <= 0 {
		progressInterval = 500 * time.Millisecond
	}
	return &YTDLP{ProgressInterval: progressInterval}
}

// Download runs yt-dlp for one URL
func (y *YTDLP) Download(ctx context.Context, req Request, events chan<- Event) (Result, error) {
	template := req.Template
	if template == "" {
		template = "%(title)s.%(ext)s"
	}

	dl := ytdlp.New().
		NoPlaylist().
		Output(filepath.Join(req.OutputDir, template))

	if req.Options.Retries > 0 {
		dl.Retries(strconv.Itoa(req.Options.Retries))
	}
	for k, v := range req.Options.Headers {
		dl.AddHeaders(k + ":" + v)
	}
	if req.Options.ExtractorArgs != "" {
		dl.ExtractorArgs(req.Options.ExtractorArgs)
	}

	dl.ProgressFunc(y.ProgressInterval, func(update ytdlp.ProgressUpdate) {
		ev := progressEvent(update)
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	res, err := dl.Run(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ErrCancelled
		}
		return Result{}, Classify(err)
	}

	out := Result{}
	if res != nil {
		if info, err := res.GetExtractedInfo(); err == nil && len(info) > 0 {
			if info[0].Filename != nil {
				out.Filename = *info[0].Filename
			}
			if info[0].Title != nil {
				out.Title = *info[0].Title
			}
		}
	}
	return out, nil
}

func progressEvent(update ytdlp.ProgressUpdate) Event {
	ev := Event{
		Status:          EventDownloading,
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		Filename:        update.Filename,
	}
	if string(update.Status) == string(EventFinished) {
		ev.Status = EventFinished
	}
	if !update.Started.IsZero() {
		ev.Speed = FormatSpeed(ev.DownloadedBytes, time.Since(update.Started))
	}
	if eta := update.ETA(); eta > 0 {
		ev.ETA = eta.Round(time.Second).String()
	}
	if update.Info != nil && update.Info.Title != nil {
		ev.Title = *update.Info.Title
	}
	return ev
}

// FormatSpeed renders a transfer rate as MB/s
func FormatSpeed(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fMB/s", float64(bytes)/elapsed.Seconds()/1024/1024)
}

var extractionHints = []string{
	"unsupported url", "unable to extract", "video unavailable", "private video",
	"extractor", "no video formats", "requested format is not available",
	"sign in to confirm", "not available in your country", "json",
}

var transferHints = []string{
	"http error", "timed out", "timeout", "connection", "network", "ssl",
	"unable to download", "read error", "no space left", "permission denied",
	"broken pipe", "eof", "reset by peer", "fragment",
}

// Classify sorts an engine failure into an extraction or transfer error
// by looking at its message.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var categorized *Error
	if errors.As(err, &categorized) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, h := range extractionHints {
		if strings.Contains(msg, h) {
			return Extraction(err)
		}
	}
	for _, h := range transferHints {
		if strings.Contains(msg, h) {
			return Transfer(err)
		}
	}
	return err
}

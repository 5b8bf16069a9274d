package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		url       string
		retries   int
		extractor string
	}{
		{"https://www.youtube.com/watch?v=abc", 5, "youtube:player_client=android"},
		{"https://youtu.be/abc", 5, "youtube:player_client=android"},
		{"https://www.pornhub.com/view_video.php?viewkey=1", 10, ""},
		{"https://xhamster.com/videos/x", 8, ""},
		{"https://www.eporner.com/video-1/", 6, ""},
		{"https://vimeo.com/1", 3, ""},
		{"not a url", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			o := OptionsFor(tt.url)
			assert.Equal(t, tt.retries, o.Retries)
			assert.Equal(t, tt.extractor, o.ExtractorArgs)
			assert.Equal(t, DefaultUserAgent, o.Headers["User-Agent"])
		})
	}
}

func TestOptionsForDoesNotShareHeaders(t *testing.T) {
	a := OptionsFor("https://youtube.com/watch?v=1")
	a.Headers["X-Test"] = "1"
	b := OptionsFor("https://youtube.com/watch?v=2")
	_, leaked := b.Headers["X-Test"]
	assert.False(t, leaked)
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"NA - Sunset Timelapse Over The Bay", "Sunset Timelapse Over The Bay"},
		{"na - Sunset", "Sunset"},
		{"undefined - Something", "Something"},
		{"[object Object] - Clip", "Clip"},
		{"ChannelName - A Very Long Video Title", "A Very Long Video Title"},
		{"Tom and Jerry - The Movie Returns", "Tom and Jerry - The Movie Returns"},
		{"Uploader - Short", "Uploader - Short"},
		{"A Channel Name That Is Far Too Long - Some Real Title", "A Channel Name That Is Far Too Long - Some Real Title"},
		{"- Dashes -", "Dashes"},
		{"", UnknownTitle},
		{"NA - ", UnknownTitle},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, CleanTitle(tt.in))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindExtraction, KindOf(Classify(errors.New("ERROR: Unsupported URL: https://x"))))
	assert.Equal(t, KindExtraction, KindOf(Classify(errors.New("Unable to extract video data"))))
	assert.Equal(t, KindTransfer, KindOf(Classify(errors.New("HTTP Error 503: Service Unavailable"))))
	assert.Equal(t, KindTransfer, KindOf(Classify(errors.New("read timed out"))))
	assert.Equal(t, Kind(0), KindOf(Classify(errors.New("something odd"))))
	assert.Nil(t, Classify(nil))

	wrapped := Transfer(errors.New("unsupported url but already sorted"))
	assert.Equal(t, KindTransfer, KindOf(Classify(wrapped)))
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("run: %w", Extraction(base))

	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindExtraction, KindOf(err))
	assert.Contains(t, err.Error(), "extraction error")
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(fmt.Errorf("wrap: %w", context.Canceled)))
	assert.False(t, IsCancelled(Transfer(errors.New("x"))))
}

func TestFuncEngine(t *testing.T) {
	var e Engine = Func(func(ctx context.Context, req Request, events chan<- Event) (Result, error) {
		events <- Event{Status: EventDownloading, DownloadedBytes: 5, TotalBytes: 10}
		return Result{Title: req.URL}, nil
	})

	events := make(chan Event, 1)
	res, err := e.Download(context.Background(), Request{URL: "u"}, events)
	require.NoError(t, err)
	assert.Equal(t, "u", res.Title)
	assert.Equal(t, int64(5), (<-events).DownloadedBytes)
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "2.0MB/s", FormatSpeed(4*1024*1024, 2*time.Second))
	assert.Equal(t, "", FormatSpeed(100, 0))
}

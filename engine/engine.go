// Package engine describes the external extraction engine the service
// drives, and provides the yt-dlp backed implementation.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// EventStatus is the phase reported by a progress event
type EventStatus string

const (
	EventDownloading EventStatus = "downloading"
	EventFinished    EventStatus = "finished"
)

// Event is one progress report emitted while a download runs
type Event struct {
	Status          EventStatus
	DownloadedBytes int64
	TotalBytes      int64
	Speed           string
	ETA             string
	// Title is the engine's title for the media, if known
	Title    string
	Filename string
}

// Request describes one engine invocation
type Request struct {
	URL       string
	OutputDir string
	// Template is the output name template, e.g. "%(title)s.%(ext)s"
	Template string
	Options  SiteOptions
}

// Result is what a successful run produced
type Result struct {
	Filename string
	Title    string
}

// Engine downloads one URL. Implementations send progress on events,
// never close it, and return once the transfer ends. Cancelling ctx
// must make Download return ErrCancelled or the context error.
type Engine interface {
	Download(ctx context.Context, req Request, events chan<- Event) (Result, error)
}

// Func adapts a function to the Engine interface
type Func func(ctx context.Context, req Request, events chan<- Event) (Result, error)

// Download calls f
func (f Func) Download(ctx context.Context, req Request, events chan<- Event) (Result, error) {
	return f(ctx, req, events)
}

// ErrCancelled is returned when a download stops because it was cancelled
var ErrCancelled = errors.New("download cancelled")

// Kind is the category of an engine failure
type Kind int

const (
	// KindExtraction covers metadata and parsing failures
	KindExtraction Kind = iota + 1
	// KindTransfer covers network and IO failures
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindExtraction:
		return "extraction error"
	case KindTransfer:
		return "transfer error"
	}
	return "unknown error"
}

// Error is a categorized engine failure
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extraction wraps err as an extraction error
func Extraction(err error) error {
	return &Error{Kind: KindExtraction, Err: err}
}

// Transfer wraps err as a transfer error
func Transfer(err error) error {
	return &Error{Kind: KindTransfer, Err: err}
}

// KindOf returns the category of err, or zero if it is not an engine error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsCancelled reports whether err signals a cancelled download
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

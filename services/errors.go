package services

import (
	"errors"
	"fmt"

	"vidsnatch/engine"
)

var (
	ErrNotFound       = errors.New("download not found")
	ErrEmptyURL       = errors.New("url is required")
	ErrNotRetryable   = errors.New("download is not in a failed state")
	ErrNotClearable   = errors.New("only finished downloads can be cleared")
	ErrNotCancellable = errors.New("download already finished")
	ErrNotPartial     = errors.New("not a partial download file")
	ErrOutsideDir     = errors.New("path is outside the download folder")
	ErrInvalidState   = errors.New("invalid state transition")
)

// Synthetic failure messages
const (
	MsgInterrupted       = "interrupted by restart"
	MsgStuck             = "stuck in preparing state"
	MsgHistoryRestart    = "Server restart - marked for manual retry"
	MsgCancelledByUser   = "cancelled by user"
	msgGenericFailure    = "Download failed"
	msgExtractionFailure = "Could not extract video information"
	msgTransferFailure   = "Download failed due to a network or file error"
)

// FailureMessage turns an engine error into the message shown to users
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	switch engine.KindOf(err) {
	case engine.KindExtraction:
		return fmt.Sprintf("%s: %v", msgExtractionFailure, unwrapEngine(err))
	case engine.KindTransfer:
		return fmt.Sprintf("%s: %v", msgTransferFailure, unwrapEngine(err))
	}
	return fmt.Sprintf("%s: %v", msgGenericFailure, err)
}

func unwrapEngine(err error) error {
	var e *engine.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}

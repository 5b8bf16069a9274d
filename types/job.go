package types

import "time"

// JobStatus represents the current status of a download job
type JobStatus string

const (
	JobStatusPreparing   JobStatus = "preparing"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusCancelled   JobStatus = "cancelled"
	JobStatusError       JobStatus = "error"
	// JobStatusFailed is reported for jobs that live in the failed store
	JobStatusFailed JobStatus = "failed"
)

// allowedTransitions lists the forward moves of the job state machine.
// Re-entry into preparing is only possible through retry.
var allowedTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusPreparing: {
		JobStatusDownloading: true,
		JobStatusProcessing:  true,
		JobStatusCompleted:   true,
		JobStatusCancelled:   true,
		JobStatusError:       true,
	},
	JobStatusDownloading: {
		JobStatusProcessing: true,
		JobStatusCompleted:  true,
		JobStatusCancelled:  true,
		JobStatusError:      true,
	},
	JobStatusProcessing: {
		JobStatusCompleted: true,
		JobStatusCancelled: true,
		JobStatusError:     true,
	},
	JobStatusError: {
		JobStatusFailed: true,
	},
}

// CanTransition reports whether a job may move from one status to another
func CanTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	return allowedTransitions[from][to]
}

// InProgress reports whether the status belongs in the active snapshot
func (s JobStatus) InProgress() bool {
	switch s {
	case JobStatusPreparing, JobStatusDownloading, JobStatusProcessing:
		return true
	}
	return false
}

// Terminal reports whether the job has stopped running
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusError, JobStatusFailed:
		return true
	}
	return false
}

// Job represents one submitted download tracked by the registry
type Job struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Status     JobStatus `json:"status"`
	Percent    float64   `json:"percent"`
	Speed      string    `json:"speed"`
	ETA        string    `json:"eta"`
	Error      string    `json:"error,omitempty"`
	Cancelled  bool      `json:"cancelled"`
	Queued     bool      `json:"queued"`
	RetryCount int       `json:"retryCount"`
	OpenFolder bool      `json:"openFolder"`
	Filename   string    `json:"filename,omitempty"`
	HistoryID  string    `json:"historyId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	// StartTime is set when the job leaves the worker queue
	StartTime  time.Time  `json:"startTime"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Snapshot returns the persisted subset of the job
func (j *Job) Snapshot() JobSnapshot {
	return JobSnapshot{
		ID:         j.ID,
		URL:        j.URL,
		Title:      j.Title,
		Status:     j.Status,
		Percent:    j.Percent,
		RetryCount: j.RetryCount,
		OpenFolder: j.OpenFolder,
		StartTime:  j.StartTime,
	}
}

// JobSnapshot is the on-disk form of an in-progress job
type JobSnapshot struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Status     JobStatus `json:"status"`
	Percent    float64   `json:"percent"`
	RetryCount int       `json:"retry_count"`
	OpenFolder bool      `json:"open_folder"`
	StartTime  time.Time `json:"start_time"`
}

// FailedRecord is a terminally failed job kept for retry
type FailedRecord struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Error         string `json:"error"`
	RetryCount    int    `json:"retry_count"`
	FailedAt      int64  `json:"failed_at"`
	FailedAtHuman string `json:"failed_at_human"`
	OpenFolder    bool   `json:"open_folder"`
	Domain        string `json:"domain"`
	Path          string `json:"path"`
}

// HistoryStatus represents the state of a URL in the long-lived history
type HistoryStatus string

const (
	HistoryPending     HistoryStatus = "pending"
	HistoryDownloading HistoryStatus = "downloading"
	HistoryCompleted   HistoryStatus = "completed"
	HistoryFailed      HistoryStatus = "failed"
)

// HistoryEntry records every URL ever submitted
type HistoryEntry struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	Status      HistoryStatus `json:"status"`
	Attempts    int           `json:"attempts"`
	AddedAt     time.Time     `json:"added"`
	LastAttempt *time.Time    `json:"last_attempt,omitempty"`
	CompletedAt *time.Time    `json:"completed,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// FileRecord maps a produced file back to its source URL
type FileRecord struct {
	Filename     string    `json:"filename"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	DownloadTime time.Time `json:"download_time"`
}

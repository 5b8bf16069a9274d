package types

import "time"

// ProgressMessage represents a WebSocket progress update message
type ProgressMessage struct {
	JobID     string    `json:"jobId"`
	Type      string    `json:"type"`    // "progress", "status", "complete", "error"
	Percent   float64   `json:"percent"` // 0-100 percentage
	Status    JobStatus `json:"status"`
	Title     string    `json:"title"`
	Speed     string    `json:"speed"`
	ETA       string    `json:"eta"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProgressMessage builds a progress message from a job view
func NewProgressMessage(kind string, job Job) ProgressMessage {
	return ProgressMessage{
		JobID:     job.ID,
		Type:      kind,
		Percent:   job.Percent,
		Status:    job.Status,
		Title:     job.Title,
		Speed:     job.Speed,
		ETA:       job.ETA,
		Message:   job.Error,
		Timestamp: time.Now(),
	}
}

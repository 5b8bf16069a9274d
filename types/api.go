package types

// SubmitRequest is the body of a new download request
type SubmitRequest struct {
	URL        string `json:"url" binding:"required"`
	Title      string `json:"title"`
	OpenFolder bool   `json:"openFolder"`
}

// SubmitResponse answers a submit request, either with a new job or a duplicate notice
type SubmitResponse struct {
	Success            bool   `json:"success"`
	DownloadID         string `json:"downloadId,omitempty"`
	IsDuplicate        bool   `json:"isDuplicate,omitempty"`
	ExistingDownloadID string `json:"existingDownloadId,omitempty"`
	RetryCount         int    `json:"retryCount,omitempty"`
	OriginalError      string `json:"originalError,omitempty"`
	Message            string `json:"message,omitempty"`
}

// ProgressResponse is returned when polling a job
type ProgressResponse struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Percent    float64   `json:"percent"`
	Speed      string    `json:"speed"`
	ETA        string    `json:"eta"`
	Error      string    `json:"error,omitempty"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	RetryCount int       `json:"retryCount"`
	Queued     bool      `json:"queued"`
}

// RetryResponse is returned when a job is restarted
type RetryResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DownloadID string `json:"downloadId"`
	RetryCount int    `json:"retryCount"`
}

// ResolveRequest asks which record a partial file belongs to
type ResolveRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// MatchSource names the pool a resolved record came from
type MatchSource string

const (
	MatchSourceHistory MatchSource = "history"
	MatchSourceFailed  MatchSource = "failed"
	MatchSourceActive  MatchSource = "active"
)

// ResolveResponse carries the best fuzzy match for a filename
type ResolveResponse struct {
	Found      bool        `json:"found"`
	Source     MatchSource `json:"source,omitempty"`
	ID         string      `json:"id,omitempty"`
	URL        string      `json:"url,omitempty"`
	Title      string      `json:"title,omitempty"`
	Similarity float64     `json:"similarity,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// DownloadEntry is one row of the debug listing
type DownloadEntry struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Status     JobStatus `json:"status"`
	Percent    float64   `json:"percent"`
	Error      string    `json:"error,omitempty"`
	RetryCount int       `json:"retryCount"`
	Source     string    `json:"source"` // "active" or "failed"
}

// VideoFile represents a finished file in the download folder
type VideoFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"sizeHuman"`
	Modified  int64  `json:"modified"`
	Format    string `json:"format"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
}

// PartialFile represents an incomplete download artifact
type PartialFile struct {
	Name     string           `json:"name"`
	Size     int64            `json:"size"`
	Modified int64            `json:"modified"`
	Match    *ResolveResponse `json:"match,omitempty"`
}

// Stats summarizes the registry for the status endpoint
type Stats struct {
	Active    int `json:"active"`
	Queued    int `json:"queued"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Failed    int `json:"failed"`
	History   int `json:"history"`
}

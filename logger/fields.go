package logger

// Fields is an alias for map[string]interface{} for convenience
type Fields map[string]interface{}

const (
	FieldRequestID  = "request_id"
	FieldJobID      = "job_id"
	FieldURL        = "url"
	FieldStatus     = "status"
	FieldComponent  = "component"
	FieldFile       = "file"
	FieldCount      = "count"
	FieldDurationMs = "duration_ms"
)

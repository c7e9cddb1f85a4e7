// model/log.go
package model

import "time"

// RequestLog is one persisted access-log row, written by the request
// logging middleware for every request.
type RequestLog struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	RequestID  string    `json:"request_id"`
	CreatedAt  time.Time `json:"created_at"`
}

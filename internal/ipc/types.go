package ipc

import (
	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
)

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse identifies the daemon process behind the socket.
type PingResponse struct {
	PID       int    `json:"pid"`
	SessionID string `json:"session_id"`
	Running   bool   `json:"running"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WatchStatus mirrors the HTTP API watch DTO for internal IPC callers.
type WatchStatus = api.WatchStatus

// PathCandidate mirrors the HTTP API candidate DTO for internal IPC callers.
type PathCandidate = api.PathCandidate

// Event mirrors the hub event shape for internal IPC callers.
type Event = events.Event

// StatusResponse represents combined daemon/watch status information.
type StatusResponse struct {
	Running    bool        `json:"running"`
	PID        int         `json:"pid"`
	SessionID  string      `json:"session_id"`
	StartedAt  string      `json:"started_at"`
	SocketPath string      `json:"socket_path"`
	LockPath   string      `json:"lock_path"`
	LogPath    string      `json:"log_path"`
	APIBind    string      `json:"api_bind"`
	Watch      WatchStatus `json:"watch"`
}

// LogContentRequest fetches the full content of the live log.
type LogContentRequest struct{}

// LogContentResponse carries the log content and its fingerprint.
type LogContentResponse struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Fingerprint uint64 `json:"fingerprint"`
}

// LogLocationRequest fetches the live log path.
type LogLocationRequest struct{}

// LogLocationResponse reports where the log currently lives.
type LogLocationResponse struct {
	Path string `json:"path"`
}

// DefaultPathsRequest lists candidate log locations.
type DefaultPathsRequest struct{}

// DefaultPathsResponse contains candidates in resolution order plus the
// currently resolved path when one exists.
type DefaultPathsResponse struct {
	Candidates []PathCandidate `json:"candidates"`
	Active     string          `json:"active"`
}

// ValidatePathRequest checks a caller-supplied path.
type ValidatePathRequest struct {
	Path string `json:"path"`
}

// ValidatePathResponse reports whether the path exists.
type ValidatePathResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
}

// ProbeRequest announces an explicit log path through the event hub.
type ProbeRequest struct {
	Path string `json:"path"`
}

// ProbeResponse confirms the announce went out.
type ProbeResponse struct {
	Announced bool `json:"announced"`
}

// EventsRequest pages buffered watch events. WaitMillis greater than zero
// blocks until an event past Since arrives or the wait elapses.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse returns buffered events plus cursors for the next page.
type EventsResponse struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
	First  uint64  `json:"first"`
}

// LogTailRequest fetches run log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

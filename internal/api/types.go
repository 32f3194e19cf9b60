package api

import "github.com/Kirkezz/parkour-analyzer/internal/events"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// WatchStatus summarizes the watch loop in a transport-friendly format.
type WatchStatus struct {
	State        string `json:"state"`
	ActivePath   string `json:"activePath,omitempty"`
	LastError    string `json:"lastError,omitempty"`
	Updates      uint64 `json:"updates"`
	StartedAt    string `json:"startedAt,omitempty"`
	LastUpdateAt string `json:"lastUpdateAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool        `json:"running"`
	PID          int         `json:"pid"`
	SessionID    string      `json:"sessionId,omitempty"`
	StartedAt    string      `json:"startedAt,omitempty"`
	SocketPath   string      `json:"socketPath,omitempty"`
	LockFilePath string      `json:"lockFilePath,omitempty"`
	LogPath      string      `json:"logPath,omitempty"`
	APIBind      string      `json:"apiBind,omitempty"`
	Watch        WatchStatus `json:"watch"`
}

// PathCandidate describes one candidate log location in probe order.
type PathCandidate struct {
	Path   string `json:"path"`
	Client string `json:"client"`
	Exists bool   `json:"exists"`
}

// PathsResponse lists every candidate location the daemon considers.
type PathsResponse struct {
	Candidates []PathCandidate `json:"candidates"`
	Active     string          `json:"active,omitempty"`
}

// LogContentResponse carries a full snapshot of the log file.
type LogContentResponse struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Fingerprint uint64 `json:"fingerprint"`
}

// LogLocationResponse reports where the log currently lives.
type LogLocationResponse struct {
	Path string `json:"path"`
}

// ValidateResponse reports whether a caller-supplied path exists.
type ValidateResponse struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
}

// ProbeRequest asks the daemon to announce an explicit log path.
type ProbeRequest struct {
	Path string `json:"path"`
}

// EventsResponse pages buffered watch events for polling clients.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
	First  uint64         `json:"first"`
}

// StatusLine is a labeled, severity-tagged row for status rendering.
// Severity is one of ok, warn, error, or info.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

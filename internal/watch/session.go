package watch

import "time"

// State describes where the loop currently is in its lifecycle.
type State string

const (
	// StateIdle means the loop has not been started.
	StateIdle State = "idle"
	// StateSearching means no log file has been found yet; the loop retries
	// resolution on an interval and reports each miss.
	StateSearching State = "searching"
	// StateWatching means a log file was found and change signals are being
	// consumed.
	StateWatching State = "watching"
	// StateFailed means watcher setup failed; the loop emitted a final error
	// event and will not recover without a restart.
	StateFailed State = "failed"
	// StateAborted means the change signal channel closed underneath the
	// loop; it exited without emitting anything further.
	StateAborted State = "aborted"
	// StateStopped means the loop shut down on request.
	StateStopped State = "stopped"
)

// Session tracks what one watch attempt currently observes: the path being
// watched, the fingerprint of the last published content, and when the last
// publication happened. A zero fingerprint means nothing has been published
// yet, so the first captured content always goes out.
type Session struct {
	ActivePath      string    `json:"active_path,omitempty"`
	LastFingerprint uint64    `json:"last_fingerprint"`
	LastNotifyAt    time.Time `json:"last_notify_at"`
}

// Status is a point-in-time snapshot of the loop for status queries.
type Status struct {
	State        State     `json:"state"`
	ActivePath   string    `json:"active_path,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	Updates      uint64    `json:"updates"`
	StartedAt    time.Time `json:"started_at"`
	LastUpdateAt time.Time `json:"last_update_at"`
}

// Terminal reports whether the loop reached a state it cannot leave without
// being restarted.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateAborted || s == StateStopped
}

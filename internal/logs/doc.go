// Package logs gives the CLI read access to daemon output. It tails the
// daemon run log with bounded memory, supports negative offsets for
// "last N lines" seeds, and powers follow mode for `parkour logs -f`. It
// also carries the HTTP client for the daemon's buffered watch events, so
// event followers can prefer the API and fall back to the IPC socket when
// the API is unreachable. Callers supply context deadlines so background
// polling shuts down cleanly when the CLI exits.
package logs

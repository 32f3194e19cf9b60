// Package daemon coordinates the long-running Parkour process and system
// integration points.
//
// It wires configuration, the path resolver, the watch loop, and the event
// hub into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon serves every on-demand log operation, owns the
// localhost HTTP API and its websocket event push, and triggers push
// notifications for log discovery and terminal watch failures.
//
// Keep orchestration logic here: watch mechanics live in internal/watch while
// the daemon focuses on startup, shutdown, and high level coordination.
package daemon

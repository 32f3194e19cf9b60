// Package services defines shared error handling utilities consumed by the
// watch engine, the IPC surface, and the HTTP API.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across on-demand operations and the loop.
//   - The Terminal predicate that separates recoverable conditions (missing
//     log file, transient read failures) from loop-ending ones.
//
// Use these helpers when adding new operations so error semantics stay
// uniform across the daemon boundary.
package services

// Package events defines the emission model shared by the watch engine and
// its subscribers. The watch loop talks to a Sink; the Hub implementation
// buffers emissions in a bounded ring with monotonically increasing
// sequence numbers so IPC and HTTP clients can poll, long-poll, or resume
// from a known sequence. Fanout composes additional sinks (daemon log,
// tests) around the hub without the loop knowing who listens.
package events

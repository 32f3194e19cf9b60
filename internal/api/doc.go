// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal watch and path models into
// transport-friendly DTOs that companion UIs and scripts can render without
// coupling to internal types.
//
// # Key Types
//
// DaemonStatus: aggregated runtime information, including the watch loop
// snapshot.
//
// PathsResponse/PathCandidate: candidate log locations in probe order with
// existence flags.
//
// LogContentResponse/LogLocationResponse: on-demand snapshot and location
// payloads.
//
// EventsResponse: a page of buffered watch events for polling clients.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (watch.State, candidate client labels) are exposed as lowercase
// strings. Timestamps use RFC3339 with milliseconds.
package api

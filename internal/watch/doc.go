// Package watch implements the background engine that keeps subscribers
// supplied with the live game log. A Loop searches the candidate locations
// until the log exists, announces the location, publishes the full content,
// then arms a directory watcher and republishes on change. Emissions pass
// through an events.Sink; noisy change signals are tamed by a quiet window
// that drops in-window signals outright and by a content fingerprint that
// suppresses republishing identical content. Setup failures end the loop
// after a final error event; a dead signal channel ends it silently.
package watch

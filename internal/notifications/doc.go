// Package notifications delivers watch lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Lifecycle and error notifications are gated independently so a
// deployment can keep failure alerts while muting start/stop chatter.
//
// Extend this package if you need alternative transports; daemon code depends
// only on the simple Service interface.
package notifications

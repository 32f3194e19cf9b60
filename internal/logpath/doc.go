// Package logpath discovers where the live game log lives on the current
// host. It owns the per-platform candidate list, the ordering guarantees
// between the primary client and alternate launcher layouts, and the
// first-existing-wins resolution used by both the watch loop and the
// on-demand commands. Configuration may pin an explicit path ahead of the
// built-ins or append extra candidates behind them; resolution itself never
// mutates state, so callers are free to retry it while the file does not
// exist yet.
package logpath

// Package snapshot captures log file content together with a cheap change
// fingerprint. The fingerprint hashes the content length plus, for large
// files, fixed head and tail windows, so repeated captures of a growing log
// stay constant-cost while still detecting appends, truncation, and
// rotation. Equal fingerprints across captures are treated as "no change"
// by the watch loop.
package snapshot

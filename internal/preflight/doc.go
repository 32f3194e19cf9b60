// Package preflight provides readiness checks for external services
// and filesystem paths that Parkour depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures before the
//     watch engine begins searching for a log file.
//   - The CLI "parkour status" command uses individual check functions
//     (CheckNtfyFromConfig, ProbeLog) to display service health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight

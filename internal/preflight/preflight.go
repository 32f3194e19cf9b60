package preflight

import (
	"context"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Log directory (always checked; run logs and the IPC socket live here)
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	// Pinned log file (when configured)
	if cfg.Watch.LogPath != "" {
		results = append(results, CheckFileReadable("Pinned log file", cfg.Watch.LogPath))
	}

	// ntfy notifications
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyServer))
	}

	return results
}

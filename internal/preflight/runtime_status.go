package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
)

// CheckNtfyFromConfig evaluates notification status from config and connectivity.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "ntfy"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyServer) == "" {
		return Result{Name: name, Detail: "Missing server URL"}
	}
	check := CheckNtfy(context.Background(), cfg.Notifications.NtfyServer)
	if check.Passed {
		return Result{Name: name, Passed: true, Detail: check.Detail}
	}
	return Result{Name: name, Detail: check.Detail}
}

// LogProbe reports the current log discovery snapshot.
type LogProbe struct {
	Detected   bool
	Path       string
	Client     string
	SizeBytes  int64
	ModifiedAt time.Time
}

// ProbeLog walks the resolver's candidates and reports the first log file present.
func ProbeLog(resolver *logpath.Resolver) LogProbe {
	for _, candidate := range resolver.Candidates() {
		info, err := os.Stat(candidate.Path)
		if err != nil || info.IsDir() {
			continue
		}
		return LogProbe{
			Detected:   true,
			Path:       candidate.Path,
			Client:     candidate.Client,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		}
	}
	return LogProbe{}
}

// LogDetail renders a display-friendly summary for status UIs.
func (p LogProbe) LogDetail() string {
	if !p.Detected {
		return "No log file detected"
	}
	return fmt.Sprintf("%s log at %s (%d bytes)", p.Client, p.Path, p.SizeBytes)
}

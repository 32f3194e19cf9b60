// Package daemonrun hosts the daemon process lifecycle shared by the parkour
// CLI's hidden daemon command and the standalone parkourd binary: per-run log
// files, the pid file, preflight checks, the daemon itself, and the IPC
// server.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/daemon"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/fileutil"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
	"github.com/Kirkezz/parkour-analyzer/internal/notifications"
	"github.com/Kirkezz/parkour-analyzer/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
	// SocketPath overrides the IPC socket location when non-empty.
	SocketPath string
}

// Run executes the daemon until the context ends, a termination signal
// arrives, or a Stop RPC requests shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("parkour-%s.log", runID))
	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logWatchSnapshot(logger, cfg)
	if err := fileutil.ReplaceLink(logPath, filepath.Join(cfg.Paths.LogDir, "parkour.log")); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update parkour.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "parkour-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "parkour.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(logger, preflight.RunAll(signalCtx, cfg))

	hub := events.NewHub(events.DefaultHubCapacity)
	notifier := notifications.NewService(cfg)

	d, err := daemon.New(cfg, hub, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The daemon acquires the single-instance lock before the IPC socket is
	// claimed, so a second launch never steals a live daemon's socket.
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	startedAt := time.Now()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.OnShutdown(cancel)
	ipcServer.Serve()

	notifyStarted(notifier, d.SessionID())

	<-signalCtx.Done()
	logger.Info("parkour daemon shutting down")
	d.Stop()
	notifyStopped(notifier, d.SessionID(), time.Since(startedAt))
	return nil
}

func logPreflight(logger *slog.Logger, results []preflight.Result) {
	for _, result := range results {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "Fix the reported issue; the daemon continues with reduced functionality"),
			logging.String(logging.FieldImpact, "some operations may be unavailable"))
	}
}

func logWatchSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	resolver := logpath.New(
		logpath.WithPinnedPath(cfg.Watch.LogPath),
		logpath.WithExtraCandidates(cfg.Watch.ExtraCandidates),
	)
	logger.Info("watch snapshot",
		logging.String(logging.FieldEventType, "watch_snapshot"),
		logging.Bool("pinned", strings.TrimSpace(cfg.Watch.LogPath) != ""),
		logging.Int("candidate_count", len(resolver.Candidates())),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Int("log_retention_days", cfg.Logging.RetentionDays),
	)
}

func notifyStarted(notifier notifications.Service, sessionID string) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = notifier.NotifyWatchStarted(ctx, sessionID)
}

func notifyStopped(notifier notifications.Service, sessionID string, uptime time.Duration) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = notifier.NotifyWatchStopped(ctx, sessionID, uptime)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
	"github.com/Kirkezz/parkour-analyzer/internal/notifications"
	"github.com/Kirkezz/parkour-analyzer/internal/services"
	"github.com/Kirkezz/parkour-analyzer/internal/snapshot"
	"github.com/Kirkezz/parkour-analyzer/internal/watch"
)

// User-facing messages for on-demand log operations. CLI and UI callers
// display these verbatim.
const (
	msgLogNotFound  = "Could not find Minecraft log file"
	msgFileNotFound = "File not found"
)

// Daemon coordinates the watch engine and enforces single-instance execution.
// It owns the loop, rebuilding it when the watch target is repinned, and
// serves every on-demand log operation exposed over IPC and HTTP.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	hub      *events.Hub
	notifier notifications.Service

	sessionID string
	logPath   string

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	resolver  *logpath.Resolver
	loop      *watch.Loop
	api       *apiServer
	startedAt time.Time

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	SessionID    string
	StartedAt    time.Time
	SocketPath   string
	LockFilePath string
	LogPath      string
	APIBind      string
	Watch        watch.Status
}

// New constructs a daemon with initialized dependencies. A nil notifier
// disables push notifications.
func New(cfg *config.Config, hub *events.Hub, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || hub == nil || logger == nil {
		return nil, errors.New("daemon requires config, event hub, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		hub:       hub,
		notifier:  notifier,
		sessionID: uuid.NewString(),
		logPath:   filepath.Join(cfg.Paths.LogDir, "parkour.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.resolver = resolverFromConfig(cfg)
	d.loop = d.newLoop(d.resolver)

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, fmt.Errorf("configure api server: %w", err)
	}
	d.api = api
	return d, nil
}

func resolverFromConfig(cfg *config.Config) *logpath.Resolver {
	return logpath.New(
		logpath.WithPinnedPath(cfg.Watch.LogPath),
		logpath.WithExtraCandidates(cfg.Watch.ExtraCandidates),
	)
}

func (d *Daemon) newLoop(resolver *logpath.Resolver) *watch.Loop {
	sink := events.Fanout(d.hub, events.NewLogSink(d.logger), newLocatedNotifier(d.notifier, d.logger))
	return watch.NewLoop(watch.Options{
		Resolver: resolver,
		Sink:     sink,
		Logger:   logging.NewComponentLogger(d.logger, "watch"),
	})
}

// Start launches the watch engine and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another parkour daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.loop.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watch loop: %w", err)
	}
	go d.observeWatchFailure(d.loop)

	if err := d.api.start(d.ctx); err != nil {
		d.loop.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("parkour daemon started",
		logging.String(logging.FieldSessionID, d.sessionID),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the watch engine and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Daemon) stopLocked() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.loop.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("parkour daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether the daemon has been started and not yet stopped.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// SessionID returns the identifier assigned to this daemon run.
func (d *Daemon) SessionID() string {
	return d.sessionID
}

// EventStream exposes the hub backing the event queries.
func (d *Daemon) EventStream() *events.Hub {
	return d.hub
}

// LogPath returns the path of the current run log pointer.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	loop := d.loop
	startedAt := d.startedAt
	d.mu.Unlock()

	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		StartedAt:    startedAt,
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		APIBind:      d.cfg.Paths.APIBind,
		Watch:        loop.Status(),
	}
}

// LogContent resolves the live log and returns its full content alongside the
// fingerprint of that content. Resolution runs fresh on every call so a newly
// appeared higher-priority candidate wins without restarting the watch.
func (d *Daemon) LogContent(ctx context.Context) (string, snapshot.Snapshot, error) {
	path, ok := d.currentResolver().Resolve()
	if !ok {
		return "", snapshot.Snapshot{}, services.Wrap(services.ErrNotFound, "daemon", "log content", msgLogNotFound, nil)
	}
	snap, err := snapshot.Take(path)
	if err != nil {
		return "", snapshot.Snapshot{}, services.Wrap(services.ErrRead, "daemon", "log content", fmt.Sprintf("Failed to read log: %v", err), err)
	}
	return path, snap, nil
}

// LogLocation resolves and returns the current live log path.
func (d *Daemon) LogLocation(ctx context.Context) (string, error) {
	path, ok := d.currentResolver().Resolve()
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "daemon", "log location", msgLogNotFound, nil)
	}
	return path, nil
}

// DefaultPaths returns every candidate location in resolution order.
func (d *Daemon) DefaultPaths() []logpath.Candidate {
	return d.currentResolver().Candidates()
}

// ValidatePath reports whether the given path currently exists.
func (d *Daemon) ValidatePath(path string) bool {
	return d.currentResolver().Valid(path)
}

// Probe validates an explicit log path and announces it through the event
// hub: consumers receive the same location and update events the watch loop
// would publish, without disturbing the running session. An unreadable but
// existing file yields only the location event.
func (d *Daemon) Probe(ctx context.Context, path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return services.Wrap(services.ErrNotFound, "daemon", "probe", msgFileNotFound, nil)
	}
	info, err := os.Stat(trimmed)
	if err != nil || info.IsDir() {
		return services.Wrap(services.ErrNotFound, "daemon", "probe", msgFileNotFound, err)
	}

	d.hub.NotifyLocation(trimmed)
	if snap, readErr := snapshot.Take(trimmed); readErr == nil {
		d.hub.NotifyContent(snap.Content)
	}
	attrs := append(requestAttrs(ctx), logging.String(logging.FieldPath, trimmed))
	d.logger.Debug("probe announced", logging.Args(attrs...)...)
	return nil
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) currentResolver() *logpath.Resolver {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolver
}

// requestAttrs converts request annotations carried on ctx into log attributes.
func requestAttrs(ctx context.Context) []logging.Attr {
	var attrs []logging.Attr
	if id, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldRequestID, id))
	}
	if transport, ok := services.TransportFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldTransport, transport))
	}
	return attrs
}

// observeWatchFailure pushes a notification when a loop dies for a terminal
// reason. Search misses and routine shutdowns never reach the notifier.
func (d *Daemon) observeWatchFailure(loop *watch.Loop) {
	<-loop.Done()
	err := loop.Err()
	if err == nil || !services.Terminal(err) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if notifyErr := d.notifier.NotifyWatchFailed(ctx, err, "log watch"); notifyErr != nil {
		d.logger.Warn("failed to send watch failure notification",
			logging.Error(notifyErr),
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String(logging.FieldErrorHint, "Check ntfy configuration and connectivity"))
	}
}

// locatedNotifier forwards log discovery events to the push notifier without
// blocking the watch loop.
type locatedNotifier struct {
	service notifications.Service
	logger  *slog.Logger
}

func newLocatedNotifier(service notifications.Service, logger *slog.Logger) events.Sink {
	if service == nil {
		return nil
	}
	return &locatedNotifier{service: service, logger: logger}
}

func (n *locatedNotifier) NotifyLocation(path string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.service.NotifyLogLocated(ctx, path); err != nil && n.logger != nil {
			n.logger.Warn("failed to send log located notification",
				logging.Error(err),
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.String(logging.FieldErrorHint, "Check ntfy configuration and connectivity"))
		}
	}()
}

func (n *locatedNotifier) NotifyContent(string) {}

func (n *locatedNotifier) NotifyError(string) {}

package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/services"
	"github.com/Kirkezz/parkour-analyzer/internal/snapshot"
)

const (
	// DefaultRetryInterval paces resolution attempts while no log file exists.
	DefaultRetryInterval = 5 * time.Second
	// DefaultReceiveTimeout bounds each wait for a change signal so the loop
	// wakes periodically even when the watched directory stays quiet.
	DefaultReceiveTimeout = 3 * time.Second
	// DefaultDebounce is the quiet window after a publication during which
	// further change signals are dropped outright, not queued.
	DefaultDebounce = 2 * time.Second
)

// missingLogMessage goes out as an error event on every failed resolution
// attempt while searching.
const missingLogMessage = "Minecraft log file not found"

// Resolver locates the log file to watch.
type Resolver interface {
	Resolve() (string, bool)
}

// Options configures a Loop. Zero intervals fall back to the defaults and a
// nil watcher factory falls back to fsnotify.
type Options struct {
	Resolver   Resolver
	Sink       events.Sink
	Logger     *slog.Logger
	NewWatcher WatcherFactory

	RetryInterval  time.Duration
	ReceiveTimeout time.Duration
	Debounce       time.Duration
}

// Loop owns the background search/watch lifecycle. It searches until a log
// file exists, announces its location, publishes the initial content, then
// consumes change signals until it is stopped or the watcher dies. A loop
// never re-enters searching on its own: losing the file mid-watch simply
// means no further updates until a restart.
type Loop struct {
	resolver   Resolver
	sink       events.Sink
	logger     *slog.Logger
	newWatcher WatcherFactory

	retry    time.Duration
	receive  time.Duration
	debounce time.Duration

	mu           sync.Mutex
	state        State
	session      Session
	lastErr      error
	updates      uint64
	startedAt    time.Time
	lastUpdateAt time.Time
	running      bool
	quit         chan struct{}
	done         chan struct{}
}

// NewLoop constructs a loop from opts.
func NewLoop(opts Options) *Loop {
	l := &Loop{
		resolver:   opts.Resolver,
		sink:       opts.Sink,
		logger:     logging.NewComponentLogger(opts.Logger, "watch"),
		newWatcher: opts.NewWatcher,
		retry:      opts.RetryInterval,
		receive:    opts.ReceiveTimeout,
		debounce:   opts.Debounce,
		state:      StateIdle,
	}
	if l.sink == nil {
		l.sink = events.Fanout()
	}
	if l.newWatcher == nil {
		l.newWatcher = NewFSWatcher
	}
	if l.retry <= 0 {
		l.retry = DefaultRetryInterval
	}
	if l.receive <= 0 {
		l.receive = DefaultReceiveTimeout
	}
	if l.debounce <= 0 {
		l.debounce = DefaultDebounce
	}
	return l
}

// Start launches the loop goroutine. Starting an already-running loop is a
// no-op; a finished loop can be started again with fresh session state.
func (l *Loop) Start(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if l.resolver == nil {
		return services.Wrap(services.ErrConfiguration, "watch", "start", "resolver required", nil)
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.state = StateSearching
	l.session = Session{}
	l.lastErr = nil
	l.updates = 0
	l.startedAt = time.Now().UTC()
	l.lastUpdateAt = time.Time{}
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	quit, done := l.quit, l.done
	l.mu.Unlock()

	go l.run(ctx, quit, done)

	l.logger.Info("watch loop started",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String(logging.FieldState, string(StateSearching)),
	)
	return nil
}

// Stop asks the loop to exit and waits until it has.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	quit, done := l.quit, l.done
	l.quit = nil
	l.mu.Unlock()

	if quit != nil {
		close(quit)
	}
	<-done
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Done returns a channel closed when the current run finishes. Nil before
// the first Start.
func (l *Loop) Done() <-chan struct{} {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Status returns a point-in-time snapshot for status queries.
func (l *Loop) Status() Status {
	if l == nil {
		return Status{State: StateIdle}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		State:        l.state,
		ActivePath:   l.session.ActivePath,
		Updates:      l.updates,
		StartedAt:    l.startedAt,
		LastUpdateAt: l.lastUpdateAt,
	}
	if l.lastErr != nil {
		st.LastError = l.lastErr.Error()
	}
	return st
}

// Session returns a copy of the current session bookkeeping.
func (l *Loop) Session() Session {
	if l == nil {
		return Session{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Err returns the error that ended the last run, nil for clean stops.
func (l *Loop) Err() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Loop) run(ctx context.Context, quit <-chan struct{}, done chan struct{}) {
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(done)
	}()

	path, ok := l.search(ctx, quit)
	if !ok {
		l.transition(StateStopped, nil)
		l.logger.Info("watch loop stopped while searching",
			logging.String(logging.FieldEventType, "watch_stopped"),
		)
		return
	}
	l.observe(ctx, quit, path)
}

// search retries resolution until a candidate exists. Every miss is reported
// through the sink before the retry pause.
func (l *Loop) search(ctx context.Context, quit <-chan struct{}) (string, bool) {
	for {
		if path, ok := l.resolver.Resolve(); ok {
			return path, true
		}
		l.sink.NotifyError(missingLogMessage)
		l.logger.Debug("log file not found, retrying",
			logging.Duration("retry_in", l.retry),
		)
		select {
		case <-ctx.Done():
			return "", false
		case <-quit:
			return "", false
		case <-time.After(l.retry):
		}
	}
}

func (l *Loop) observe(ctx context.Context, quit <-chan struct{}, path string) {
	l.setActivePath(path)
	l.sink.NotifyLocation(path)
	l.logger.Info("log file located",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldEventType, "log_located"),
	)

	// The first capture always publishes; an unreadable file just leaves the
	// fingerprint at zero so a later successful read publishes instead.
	if snap, err := snapshot.Take(path); err == nil {
		l.recordPublish(snap.Fingerprint)
		l.sink.NotifyContent(snap.Content)
	} else {
		l.logger.Debug("initial read skipped", logging.Error(err))
	}

	watcher, err := l.newWatcher()
	if err != nil {
		l.fail(
			services.Wrap(services.ErrWatchInit, "watch", "create watcher", "", err),
			fmt.Sprintf("Watcher error: %v", err),
		)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		l.fail(
			services.Wrap(services.ErrWatchInit, "watch", "arm watcher", "", err),
			fmt.Sprintf("Watch error: %v", err),
		)
		return
	}

	l.transition(StateWatching, nil)
	// The debounce window opens when the watcher is armed, so signals racing
	// in right after the initial publication are dropped too.
	l.markWindow()
	l.logger.Info("watch armed",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldEventType, "watch_armed"),
	)

	for {
		select {
		case <-ctx.Done():
			l.stopWatching()
			return
		case <-quit:
			l.stopWatching()
			return
		case evt, ok := <-watcher.Events():
			if !ok {
				l.abort()
				return
			}
			l.handleSignal(evt, path)
		case _, ok := <-watcher.Errors():
			if !ok {
				l.abort()
				return
			}
			// Runtime watcher errors carry nothing actionable here; only
			// creation and arm failures are fatal.
		case <-time.After(l.receive):
			// Bounded wait elapsed with no signals.
		}
	}
}

// handleSignal applies the filter, debounce, and dedup rules to one change
// signal and publishes the new content when all of them pass.
func (l *Loop) handleSignal(evt fsnotify.Event, path string) {
	if filepath.Base(evt.Name) != filepath.Base(path) {
		return
	}

	l.mu.Lock()
	inWindow := time.Since(l.session.LastNotifyAt) < l.debounce
	l.mu.Unlock()
	if inWindow {
		l.logger.Debug("change signal debounced",
			logging.String(logging.FieldPath, evt.Name),
		)
		return
	}

	snap, err := snapshot.Take(path)
	if err != nil {
		l.logger.Debug("read after change failed", logging.Error(err))
		return
	}

	l.mu.Lock()
	if snap.Fingerprint == l.session.LastFingerprint {
		l.mu.Unlock()
		l.logger.Debug("content unchanged",
			logging.Uint64("fingerprint", snap.Fingerprint),
		)
		return
	}
	l.session.LastFingerprint = snap.Fingerprint
	l.session.LastNotifyAt = time.Now()
	l.updates++
	l.lastUpdateAt = time.Now().UTC()
	l.mu.Unlock()

	l.sink.NotifyContent(snap.Content)
}

func (l *Loop) recordPublish(fingerprint uint64) {
	l.mu.Lock()
	l.session.LastFingerprint = fingerprint
	l.session.LastNotifyAt = time.Now()
	l.updates++
	l.lastUpdateAt = time.Now().UTC()
	l.mu.Unlock()
}

func (l *Loop) markWindow() {
	l.mu.Lock()
	l.session.LastNotifyAt = time.Now()
	l.mu.Unlock()
}

func (l *Loop) setActivePath(path string) {
	l.mu.Lock()
	l.session.ActivePath = path
	l.mu.Unlock()
}

func (l *Loop) transition(state State, err error) {
	l.mu.Lock()
	l.state = state
	if err != nil {
		l.lastErr = err
	}
	l.mu.Unlock()
}

func (l *Loop) stopWatching() {
	l.transition(StateStopped, nil)
	l.logger.Info("watch loop stopped",
		logging.String(logging.FieldEventType, "watch_stopped"),
	)
}

// fail records a terminal setup failure and reports it to subscribers as a
// final error event.
func (l *Loop) fail(err error, message string) {
	l.transition(StateFailed, err)
	l.sink.NotifyError(message)
	logging.ErrorWithContext(l.logger, "watch setup failed", "watch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check filesystem watch limits, then restart the daemon"),
		logging.String(logging.FieldImpact, "log updates stopped"),
	)
}

// abort records the signal channel closing underneath the loop. Subscribers
// are not told; updates simply stop.
func (l *Loop) abort() {
	err := services.Wrap(services.ErrChannelClosed, "watch", "receive", "change signal channel closed", nil)
	l.transition(StateAborted, err)
	logging.WarnWithContext(l.logger, "watch loop aborted", "watch_aborted",
		logging.Error(err),
		logging.String(logging.FieldImpact, "log updates stopped"),
	)
}

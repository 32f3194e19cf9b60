package watch

import (
	"github.com/fsnotify/fsnotify"
)

// Watcher delivers raw filesystem change signals for watched directories.
// The loop consumes the channels directly; a closed channel means the
// watcher died underneath us.
type Watcher interface {
	Add(dir string) error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
	Close() error
}

// WatcherFactory constructs a watcher. Creation and arming are separate
// steps so their failures stay distinguishable.
type WatcherFactory func() (Watcher, error)

type fsWatcher struct {
	inner *fsnotify.Watcher
}

// NewFSWatcher wraps an fsnotify watcher behind the Watcher interface.
func NewFSWatcher() (Watcher, error) {
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsWatcher{inner: inner}, nil
}

func (w *fsWatcher) Add(dir string) error { return w.inner.Add(dir) }

func (w *fsWatcher) Events() <-chan fsnotify.Event { return w.inner.Events }

func (w *fsWatcher) Errors() <-chan error { return w.inner.Errors }

func (w *fsWatcher) Close() error { return w.inner.Close() }

// Package watcher notices when a tree file changes on disk so the viewer can
// hand the new tree to treestate.State.SetInitialTree.
//
// fsnotify is used where it is reliable; network and FUSE filesystems, and
// TREESTATE_FORCE_POLL=1, fall back to stat polling. Bursts of events are
// debounced into one notification.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/treestate/pkg/debug"
)

// DefaultPollInterval is how often a polling watcher stats the file.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long a burst of events must be quiet before
// one change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.quiet = d }
}

// WithPollInterval sets the stat interval used in polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOnChange sets the callback run after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback for watch errors, including ErrFileRemoved.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll skips fsnotify entirely.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// stamp is what polling compares between ticks.
type stamp struct {
	mod    time.Time
	size   int64
	exists bool
}

func statStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	return stamp{mod: info.ModTime(), size: info.Size(), exists: true}, nil
}

func (s stamp) differs(prev stamp) bool {
	return s.exists != prev.exists || s.size != prev.size || s.mod.After(prev.mod)
}

// Watcher follows one tree file.
type Watcher struct {
	path      string
	quiet     time.Duration
	interval  time.Duration
	forcePoll bool
	onChange  func()
	onError   func(error)

	mu       sync.RWMutex
	started  bool
	polling  bool
	fsType   FilesystemType
	last     stamp
	notify   *fsnotify.Watcher
	cancel   context.CancelFunc
	debounce *Debouncer
	changed  chan struct{}
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		quiet:    DefaultDebounceDuration,
		interval: DefaultPollInterval,
		onChange: func() {},
		onError:  func(error) {},
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debounce = NewDebouncer(w.quiet)
	return w, nil
}

// Start begins watching. A file that does not exist yet is fine; its creation
// counts as a change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	st, err := statStamp(w.path)
	if os.IsPermission(err) {
		return ErrPermission
	}
	w.last = st

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.fsType = detectFilesystemTypeFunc(w.path)
	w.polling = w.forcePoll || envBool("TREESTATE_FORCE_POLL") || envBool("TREESTATE_FORCE_POLLING") ||
		isRemoteFilesystem(w.fsType)

	if !w.polling {
		// The directory is watched so saves that rename over the file are seen.
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(w.path)); err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s: %v", w.path, err)
			w.polling = true
		} else {
			w.notify = fsw
			go w.eventLoop(ctx, fsw)
		}
	}
	if w.polling {
		go w.pollLoop(ctx)
	}

	debug.Log("watcher: %s on %s filesystem, polling=%v", w.path, w.fsType, w.polling)
	w.started = true
	return nil
}

// Stop ends watching. It is safe to call more than once. The Changed channel
// stays open so a blocked receiver does not mistake the close for a change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.notify != nil {
		w.notify.Close()
		w.notify = nil
	}
	w.debounce.Cancel()
	w.started = false
}

// IsPolling reports whether Start chose stat polling.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives once per debounced change that was not yet consumed.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType is the classification made by Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.interval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// Atomic saves remove or rename the old file and put a new
				// one in place; only a file that stays gone is an error.
				if _, err := os.Stat(w.path); os.IsNotExist(err) {
					if ev.Op&fsnotify.Remove != 0 {
						w.onError(ErrFileRemoved)
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.debounce.Trigger(w.fire)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w.poll()
		}
	}
}

// poll compares the file against the last stamp. A removal is reported once,
// and the file reappearing counts as a change.
func (w *Watcher) poll() {
	st, err := statStamp(w.path)
	switch {
	case err == nil:
	case os.IsNotExist(err):
	case os.IsPermission(err):
		w.onError(ErrPermission)
		return
	default:
		w.onError(err)
		return
	}

	w.mu.Lock()
	prev := w.last
	moved := st.differs(prev)
	if moved {
		w.last = st
	}
	w.mu.Unlock()

	switch {
	case !moved:
	case prev.exists && !st.exists:
		w.onError(ErrFileRemoved)
	default:
		w.debounce.Trigger(w.fire)
	}
}

// fire runs the change callback and signals Changed. Debounced calls that land
// after Stop are dropped.
func (w *Watcher) fire() {
	if !w.IsStarted() {
		return
	}
	w.onChange()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

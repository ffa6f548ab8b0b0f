// Package panoptes implements a cross-platform recursive filesystem watcher
// core. It watches a single root directory tree and delivers batched,
// root-relative change notifications through a user-supplied callback,
// backed by inotify on Linux, FSEvents on macOS, and ReadDirectoryChangesW
// on Windows.
package panoptes

import (
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/neXenio/panoptes/internal/logging"
)

// state is the Watcher's lifecycle: Init -> Running -> Stopping -> Stopped
// on the happy path, or Init -> Failed -> Stopped if the native watch could
// not be opened (spec.md §4.2.A).
type state int32

const (
	stateInit state = iota
	stateRunning
	stateStopping
	stateStopped
	stateFailed
)

// Watcher is the package's façade: construct one with New, receive batches
// through the callback passed to New, and release its resources with
// Close. A Watcher is safe for concurrent use.
type Watcher struct {
	normalizer *PathNormalizer
	source     platformSource
	collector  *collector
	dispatcher *dispatcher
	logger     *logging.Logger

	sourceDone chan struct{}

	mu        sync.Mutex
	st        state
	closeOnce sync.Once
}

// New opens a native watch on root and begins delivering batches of Events
// to callback no more often than once per latency, until Close is called.
// callback must not be nil; it is invoked synchronously from the Watcher's
// own dispatch goroutine, never concurrently with itself, and never while
// any internal lock is held (spec.md §4.5). A latency below the platform
// floor (1s on macOS, 20ms elsewhere), including zero, is raised to it.
//
// If the native watch cannot be opened — root does not exist, is not a
// directory, or the platform source's syscalls otherwise fail — New
// delivers a single Event carrying the Failed flag to callback before
// returning, and the returned Watcher is already in its terminal state
// (IsWatching reports false). The non-nil error in that case identifies the
// cause for callers that want to distinguish it programmatically; the demo
// CLI and most callers only need the delivered Event.
func New(root string, latency time.Duration, callback func(Batch), opts ...Option) (*Watcher, error) {
	if callback == nil {
		return nil, errors.New("callback must not be nil")
	}
	floor := 20 * time.Millisecond
	if runtime.GOOS == "darwin" {
		floor = time.Second
	}
	if latency < floor {
		latency = floor
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	w := &Watcher{logger: o.logger}

	normalizer, err := NewPathNormalizer(root)
	if err != nil {
		w.fail(callback)
		return w, err
	}
	w.normalizer = normalizer

	source, err := newPlatformSource(sourceDeps{normalizer: normalizer, opts: o, logger: o.logger})
	if err != nil {
		w.fail(callback)
		return w, errors.Wrap(err, failedDiagnostic)
	}
	w.source = source

	w.collector = newCollector()
	w.dispatcher = newDispatcher(w.collector, latency, callback, o.logger)
	w.sourceDone = make(chan struct{})

	w.st = stateRunning
	go w.dispatcher.run()
	go func() {
		defer close(w.sourceDone)
		w.source.run(w.collector)
	}()

	return w, nil
}

// fail delivers the single FAILED event a startup failure requires and
// marks the Watcher as already in its terminal state, without starting any
// goroutine.
func (w *Watcher) fail(callback func(Batch)) {
	w.mu.Lock()
	w.st = stateFailed
	w.mu.Unlock()
	callback(Batch{{RelativePath: failedDiagnostic, Type: Failed}})
}

// IsWatching reports whether the Watcher is actively watching. It returns
// false once Close has begun, after a startup failure, and once the
// platform source's run has returned on its own after reporting a Failed
// event.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st != stateRunning {
		return false
	}
	select {
	case <-w.sourceDone:
		return false
	default:
		return true
	}
}

// Close stops the native watch, flushes any events still pending in the
// Collector through one final dispatch, and blocks until both the platform
// source's goroutine and the dispatcher's goroutine have joined (spec.md
// §2, §5). It is safe to call more than once; only the first call does any
// work.
func (w *Watcher) Close() error {
	var stopErr error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		if w.st != stateRunning {
			w.st = stateStopped
			w.mu.Unlock()
			return
		}
		w.st = stateStopping
		w.mu.Unlock()

		stopErr = w.source.stop()
		<-w.sourceDone
		w.collector.close()
		w.dispatcher.Close()

		w.mu.Lock()
		w.st = stateStopped
		w.mu.Unlock()
	})
	return stopErr
}

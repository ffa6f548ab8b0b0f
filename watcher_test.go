package panoptes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neXenio/panoptes/internal/testutil"
)

const maximumEventWaitTime = 5 * time.Second

// collectingWatcher wraps a Watcher and its delivered batches behind a
// channel, the same shape mutagen's own watch_test.go uses to verify
// asynchronous delivery against a deadline rather than a fixed sleep.
type collectingWatcher struct {
	t       *testing.T
	watcher *Watcher
	batches chan Batch
}

func newCollectingWatcher(t *testing.T, root string, opts ...Option) *collectingWatcher {
	t.Helper()
	cw := &collectingWatcher{t: t, batches: make(chan Batch, 64)}
	w, err := New(root, 10*time.Millisecond, func(b Batch) { cw.batches <- b }, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cw.watcher = w
	t.Cleanup(func() { w.Close() })
	return cw
}

// expect blocks until some delivered batch contains an Event satisfying ee,
// or the deadline elapses.
func (cw *collectingWatcher) expect(ee ExpectedEvent) Event {
	cw.t.Helper()
	deadline := time.NewTimer(maximumEventWaitTime)
	defer deadline.Stop()
	for {
		select {
		case b := <-cw.batches:
			if e, ok := b.Find(ee); ok {
				return e
			}
		case <-deadline.C:
			cw.t.Fatalf("timed out waiting for event matching %+v", ee)
			return Event{}
		}
	}
}

func TestWatcherDetectsFileCreation(t *testing.T) {
	s := testutil.New(t)
	cw := newCollectingWatcher(t, s.Root)

	s.CreateFile("created_file", "hello")

	cw.expect(ExpectedEvent{Path: "created_file", Required: Created})
}

func TestWatcherDetectsFileModification(t *testing.T) {
	s := testutil.New(t)
	s.CreateFile("existing_file", "hello")
	cw := newCollectingWatcher(t, s.Root)

	s.ModifyFile("existing_file", " world")

	cw.expect(ExpectedEvent{Path: "existing_file", Required: Modified})
}

func TestWatcherDetectsFileDeletion(t *testing.T) {
	s := testutil.New(t)
	s.CreateFile("doomed_file", "hello")
	cw := newCollectingWatcher(t, s.Root)

	s.Remove("doomed_file")

	cw.expect(ExpectedEvent{Path: "doomed_file", Required: Deleted})
}

func TestWatcherDetectsNestedDirectoryCreation(t *testing.T) {
	s := testutil.New(t)
	cw := newCollectingWatcher(t, s.Root)

	s.CreateDirectory("subfolder/subfolder2/subfolder3")
	s.CreateFile("subfolder/subfolder2/subfolder3/created_file", "hello")

	cw.expect(ExpectedEvent{Path: "subfolder/subfolder2/subfolder3/created_file", Required: Created})
}

func TestWatcherDetectsRename(t *testing.T) {
	s := testutil.New(t)
	s.CreateFile("old_name", "hello")
	cw := newCollectingWatcher(t, s.Root, WithRenamePairing(true))

	s.Rename("old_name", "new_name")

	cw.expect(ExpectedEvent{Path: "old_name", Required: Deleted.Union(Renamed)})
	cw.expect(ExpectedEvent{Path: "new_name", Required: Created.Union(Renamed)})
}

func TestWatcherDetectsDirectoryMovedOutOfTree(t *testing.T) {
	outside := t.TempDir()
	s := testutil.New(t)
	s.CreateDirectory("subfolder")
	s.CreateFile("subfolder/inner_file", "hello")
	cw := newCollectingWatcher(t, s.Root)

	if err := os.Rename(s.Path("subfolder"), filepath.Join(outside, "subfolder")); err != nil {
		t.Fatalf("rename out of tree: %v", err)
	}

	cw.expect(ExpectedEvent{Path: "subfolder", Required: Deleted})
}

func TestWatcherStartupFailureOnMissingRoot(t *testing.T) {
	batches := make(chan Batch, 4)
	w, err := New("/definitely/does/not/exist/panoptes-test", time.Millisecond, func(b Batch) {
		batches <- b
	})
	if err == nil {
		t.Fatalf("expected an error constructing a watcher on a missing root")
	}
	if w.IsWatching() {
		t.Fatalf("expected IsWatching() == false after a startup failure")
	}

	select {
	case b := <-batches:
		if _, ok := b.Find(ExpectedEvent{Path: failedDiagnostic, Required: Failed}); !ok {
			t.Fatalf("expected the delivered batch to carry a Failed event, got %+v", b)
		}
	default:
		t.Fatalf("expected a Failed event to be delivered synchronously during New")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	s := testutil.New(t)
	w, err := New(s.Root, time.Millisecond, func(Batch) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !w.IsWatching() {
		t.Fatalf("expected IsWatching() == true immediately after New")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if w.IsWatching() {
		t.Fatalf("expected IsWatching() == false after Close")
	}
}

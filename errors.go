package panoptes

import "github.com/pkg/errors"

// Sentinel errors returned by the package's internal machinery. Most of
// these never reach the caller directly — startup failures are folded into a
// single Failed event per spec.md §4.2 — but they are exposed so tests, the
// demo CLI, and future callers can distinguish causes when it matters.
var (
	// ErrRootNotExist indicates the configured root did not exist when the
	// platform source attempted to open its native watch.
	ErrRootNotExist = errors.New("watch root does not exist")
	// ErrRootNotDir indicates the configured root exists but is not a
	// directory.
	ErrRootNotDir = errors.New("watch root is not a directory")
	// ErrWatchTerminated names a platform source that has been asked to
	// stop. No code path in the package returns it: a source's run returns
	// no error.
	ErrWatchTerminated = errors.New("watch terminated")
	// ErrTooManyPendingPaths names a coalescing window holding too many
	// pending paths. No code path in the package returns it: the Collector
	// is unbounded.
	ErrTooManyPendingPaths = errors.New("too many pending paths in one coalescing window")
	// ErrClosed names a Watcher that has already been closed. No code path
	// in the package returns it: a repeated Close returns nil.
	ErrClosed = errors.New("watcher closed")
)

// failedDiagnostic is the fixed diagnostic path spec.md §4.2/§8 (S5)
// requires on the single FAILED event emitted when a native watch cannot be
// opened.
const failedDiagnostic = "Failed to open directory."

package panoptes

import "github.com/neXenio/panoptes/internal/logging"

// platformSource is the native backend abstraction: one implementation per
// operating system, selected at compile time via build tags (source_linux.go,
// source_darwin.go, source_windows.go, source_other.go), mirroring the
// teacher package's per-platform watch_recursive_*.go split.
//
// A platformSource is opened synchronously by newPlatformSource so that a
// startup failure (spec.md §4.2.A) can be reported to the caller before any
// goroutine starts. Once open, run pushes rawEvents to c until stop is
// called or the native watch dies on its own, at which point run pushes a
// single Failed event and returns.
type platformSource interface {
	// run pushes relativized rawEvents to c until the source is stopped or
	// fails. It is called on its own goroutine by the Watcher and must
	// return once stopped.
	run(c *collector)
	// stop asks the source to shut down its native watch and causes a
	// blocked run to return. It is safe to call at most once.
	stop() error
}

// sourceDeps bundles the values every platformSource implementation needs,
// so that newPlatformSource has one signature across all build-tagged
// files.
type sourceDeps struct {
	normalizer *PathNormalizer
	opts       options
	logger     *logging.Logger
}

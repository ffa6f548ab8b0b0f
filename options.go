package panoptes

import "github.com/neXenio/panoptes/internal/logging"

// options collects the functional-options configuration for a Watcher,
// following the teacher package's WithLogger/AddWith-style construction
// (mutagen-io/mutagen pkg/filesystem/watching and fsnotify's AddWith).
type options struct {
	logger        *logging.Logger
	bufferSize    int
	renamePairing bool
}

// defaultOptions mirrors the constant the teacher package hardcodes for its
// native buffer size (mutagen's watchNativeEventsBufferSize), exposed here
// as an overridable default instead.
func defaultOptions() options {
	return options{
		bufferSize:    4096,
		renamePairing: true,
	}
}

// Option configures a Watcher at construction time.
type Option func(*options)

// WithLogger attaches a logger that receives diagnostics for conditions
// spec.md classifies as "logged, record skipped" — most notably transient
// native-backend decode errors — as well as debug-level tracing of
// dispatched batches. A nil logger (the default) discards everything.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBufferSize overrides the size, in bytes, of the native backend's raw
// read buffer (the inotify read(2) buffer on Linux, the
// FILE_NOTIFY_INFORMATION buffer on Windows). It has no effect on the
// FSEvents backend, which does not read a fixed-size buffer.
func WithBufferSize(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.bufferSize = bytes
		}
	}
}

// WithRenamePairing controls whether the two halves of a rename carry the
// RENAMED bit on the Linux and Windows backends. When enabled (the default),
// the old path is reported as DELETED|RENAMED and the new path as
// CREATED|RENAMED; when disabled, as DELETED and CREATED. Each half is
// emitted as its own event when it arrives; halves are not matched by the
// inotify cookie. The FSEvents backend ignores this option.
func WithRenamePairing(enabled bool) Option {
	return func(o *options) { o.renamePairing = enabled }
}

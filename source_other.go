//go:build !linux && !darwin && !windows

package panoptes

import "runtime"

// otherSource is the platformSource used on operating systems with no
// native backend wired in (spec.md requires Windows, Linux, and macOS only).
// newPlatformSource always succeeds, so New returns no error; run then
// pushes a single Failed event whose path names the platform and returns.
// Unlike the other backends' startup failures, that event goes through the
// dispatcher and its path is not the fixed failedDiagnostic string.
type otherSource struct{}

func newPlatformSource(deps sourceDeps) (platformSource, error) {
	return &otherSource{}, nil
}

func (s *otherSource) run(c *collector) {
	c.push(rawEvent{path: "unsupported platform: " + runtime.GOOS, typ: Failed})
}

func (s *otherSource) stop() error { return nil }

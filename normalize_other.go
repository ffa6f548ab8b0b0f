//go:build !linux && !darwin && !windows

package panoptes

import "strings"

// pathEqual falls back to byte-exact comparison on platforms without a
// native source (source_other.go), matching the Linux rule since such
// platforms never actually compare FSEvents/inotify/RDCW paths.
func pathEqual(a, b string) bool { return a == b }

func pathHasPrefix(abs, prefix string) bool { return strings.HasPrefix(abs, prefix) }

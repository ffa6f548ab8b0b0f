//go:build linux

package panoptes

import "strings"

// pathEqual compares two already-Clean absolute paths using Linux's
// byte-exact filename semantics (spec.md §4.3: case-sensitive, no Unicode
// normalization folding).
func pathEqual(a, b string) bool { return a == b }

// pathHasPrefix reports whether abs lexically starts with prefix, byte for
// byte, matching pathEqual's comparison rule.
func pathHasPrefix(abs, prefix string) bool { return strings.HasPrefix(abs, prefix) }

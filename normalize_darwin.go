//go:build darwin

package panoptes

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// pathEqual compares two already-Clean absolute paths using macOS's default
// volume semantics: case-insensitive, and Unicode-normalization-insensitive
// (spec.md §4.3). FSEvents reports paths in NFD; a root supplied by the
// caller, or reconstructed from user input, may be in NFC. Both sides are
// folded to NFC before comparing so "é" (composed) and "e´" (decomposed)
// match regardless of which form either string happens to be in.
func pathEqual(a, b string) bool {
	if len(a) == len(b) && a == b {
		return true
	}
	return strings.EqualFold(norm.NFC.String(a), norm.NFC.String(b))
}

// pathHasPrefix reports whether abs lexically starts with prefix under the
// same normalization- and case-insensitive rule as pathEqual. Folding is
// applied to the whole strings rather than just the candidate prefix length,
// since NFC/NFD forms of the same text are not guaranteed to have equal byte
// length.
func pathHasPrefix(abs, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(norm.NFC.String(abs)), strings.ToLower(norm.NFC.String(prefix)))
}

package panoptes

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// PathNormalizer converts absolute paths reported by a native backend into
// paths relative to the watched root (spec.md §4.3). Canonicalization of the
// root follows symbolic links; canonicalization of children never does —
// only the root is resolved once, at construction.
type PathNormalizer struct {
	// root is the canonicalized absolute watch root, without a trailing
	// separator (unless it is a filesystem root such as "/" or "C:\").
	root string
	// prefix is root plus exactly one trailing separator, precomputed for
	// the common case of stripping a child path.
	prefix string
}

// NewPathNormalizer resolves root (following symlinks, as only the root
// itself is allowed to be a symlink per spec.md §4.3) and returns a
// normalizer for it. It returns an error if root cannot be resolved; it does
// not check that root is a directory (the platform sources do). New
// translates the error into a single Failed event per spec.md §4.2.
func NewPathNormalizer(root string) (*PathNormalizer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "unable to make watch root absolute")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrap(ErrRootNotExist, err.Error())
	}
	resolved = filepath.Clean(resolved)

	prefix := resolved
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	return &PathNormalizer{root: resolved, prefix: prefix}, nil
}

// Root returns the canonicalized absolute watch root.
func (n *PathNormalizer) Root() string { return n.root }

// Relativize strips the watch root from an absolute path reported by a
// native backend and returns the result using forward slashes, so that
// batches are directly comparable across platforms. The empty string
// denotes the root itself (spec.md §3). It returns ok=false if abs does not
// lexically fall under the root according to the platform's comparison
// rules (spec.md §4.3) — callers should drop such events rather than
// misreport them.
func (n *PathNormalizer) Relativize(abs string) (rel string, ok bool) {
	abs = filepath.Clean(abs)

	if pathEqual(abs, n.root) {
		return "", true
	}
	if len(abs) > len(n.prefix) && pathHasPrefix(abs, n.prefix) {
		return filepath.ToSlash(abs[len(n.prefix):]), true
	}
	return "", false
}

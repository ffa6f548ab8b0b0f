package panoptes

import (
	"path/filepath"
	"testing"

	"github.com/neXenio/panoptes/internal/testutil"
)

func TestPathNormalizerRelativizeRoot(t *testing.T) {
	s := testutil.New(t)
	n, err := NewPathNormalizer(s.Root)
	if err != nil {
		t.Fatalf("NewPathNormalizer: %v", err)
	}
	rel, ok := n.Relativize(n.Root())
	if !ok || rel != "" {
		t.Fatalf("Relativize(root) = (%q, %v), want (\"\", true)", rel, ok)
	}
}

func TestPathNormalizerRelativizeChild(t *testing.T) {
	s := testutil.New(t)
	s.CreateDirectory("sub")
	n, err := NewPathNormalizer(s.Root)
	if err != nil {
		t.Fatalf("NewPathNormalizer: %v", err)
	}

	abs := filepath.Join(n.Root(), "sub", "file.txt")
	rel, ok := n.Relativize(abs)
	if !ok {
		t.Fatalf("expected child path to relativize")
	}
	if rel != "sub/file.txt" {
		t.Fatalf("rel = %q, want %q", rel, "sub/file.txt")
	}
}

func TestPathNormalizerRejectsUnrelatedPath(t *testing.T) {
	s := testutil.New(t)
	n, err := NewPathNormalizer(s.Root)
	if err != nil {
		t.Fatalf("NewPathNormalizer: %v", err)
	}
	if _, ok := n.Relativize(filepath.Dir(n.Root())); ok {
		t.Fatalf("expected the root's own parent to be rejected")
	}
}

func TestNewPathNormalizerRejectsMissingRoot(t *testing.T) {
	if _, err := NewPathNormalizer("/definitely/does/not/exist/panoptes-test"); err == nil {
		t.Fatalf("expected an error for a nonexistent root")
	}
}

//go:build darwin

package panoptes

import "testing"

func TestPathEqualCaseInsensitive(t *testing.T) {
	if !pathEqual("/Users/a/File.txt", "/Users/a/file.TXT") {
		t.Fatalf("expected case-insensitive match on darwin")
	}
}

func TestPathEqualNormalizationInsensitive(t *testing.T) {
	// "e" followed by combining acute accent U+0301 (NFD) versus the
	// precomposed U+00E9 "e with acute" (NFC) -- the same visible
	// character, as FSEvents and a caller-supplied path might disagree on.
	nfd := "/Users/a/café.txt"
	nfc := "/Users/a/café.txt"
	if nfd == nfc {
		t.Fatalf("test fixture bug: nfd and nfc forms must differ byte-for-byte")
	}
	if !pathEqual(nfd, nfc) {
		t.Fatalf("expected NFD and NFC forms of the same name to compare equal")
	}
}

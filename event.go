package panoptes

import (
	"strconv"
	"strings"
)

// EventType is a bit-set of independent flags describing what happened to a
// path during a coalescing window. Multiple flags may be set on a single
// Event to express a coalesced or ambiguous change. The numeric values are
// persistent across versions and must not be renumbered.
type EventType uint16

const (
	// Noop means no change; it is never set on a delivered Event.
	Noop EventType = 0
	// Created means the entry came into existence during the window.
	Created EventType = 1 << 0
	// Modified means the entry's content or metadata mutated.
	Modified EventType = 1 << 1
	// Deleted means the entry ceased to exist during the window.
	Deleted EventType = 1 << 2
	// Renamed means the entry was involved in a rename, as either endpoint.
	Renamed EventType = 1 << 3
	// BufferOverflow means the native source dropped events; the consumer
	// must treat the watched tree as possibly stale and rescan.
	BufferOverflow EventType = 1 << 4
	// Failed means the watch could not start, or died; the Watcher will stop.
	Failed EventType = 1 << 5
)

// Has reports whether every bit in want is set in t.
func (t EventType) Has(want EventType) bool { return t&want == want }

// Created reports whether the CREATED bit is set.
func (t EventType) Created() bool { return t.Has(Created) }

// Modified reports whether the MODIFIED bit is set.
func (t EventType) Modified() bool { return t.Has(Modified) }

// Deleted reports whether the DELETED bit is set.
func (t EventType) Deleted() bool { return t.Has(Deleted) }

// Renamed reports whether the RENAMED bit is set.
func (t EventType) Renamed() bool { return t.Has(Renamed) }

// BufferOverflow reports whether the BUFFER_OVERFLOW bit is set.
func (t EventType) BufferOverflow() bool { return t.Has(BufferOverflow) }

// Failed reports whether the FAILED bit is set.
func (t EventType) Failed() bool { return t.Has(Failed) }

// Union returns the bitwise-OR of t and other, the sole combination
// operation used when coalescing events that share a path.
func (t EventType) Union(other EventType) EventType { return t | other }

// String renders the set flags for debugging, e.g. "CREATED|MODIFIED".
func (t EventType) String() string {
	if t == Noop {
		return "NOOP"
	}
	var names []string
	for _, f := range []struct {
		bit  EventType
		name string
	}{
		{Created, "CREATED"},
		{Modified, "MODIFIED"},
		{Deleted, "DELETED"},
		{Renamed, "RENAMED"},
		{BufferOverflow, "BUFFER_OVERFLOW"},
		{Failed, "FAILED"},
	} {
		if t.Has(f.bit) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// Bitstring renders t in binary without leading zeros (Created is "1");
// the demonstration CLI pads it to the 16 digits it prints.
func (t EventType) Bitstring() string {
	return strconv.FormatUint(uint64(t), 2)
}

// Event is a single change notification. RelativePath is always relative to
// the Watcher's configured root; an empty RelativePath denotes the root
// itself. When Type carries Failed, RelativePath is a diagnostic string
// instead of a path.
type Event struct {
	RelativePath string
	Type         EventType
}

// Batch is an ordered, per-path-deduplicated sequence of Events delivered in
// a single callback invocation. Ordering is first-occurrence arrival order
// from the producer; there is no global timestamp.
type Batch []Event

// ExpectedEvent is a test-oriented matcher: it matches an Event when every
// bit in Required is set and no bit in Forbidden is set.
type ExpectedEvent struct {
	Path      string
	Required  EventType
	Forbidden EventType
}

// Matches reports whether e satisfies the expectation.
func (ee ExpectedEvent) Matches(e Event) bool {
	if e.RelativePath != ee.Path {
		return false
	}
	if !e.Type.Has(ee.Required) {
		return false
	}
	if ee.Forbidden != Noop && e.Type&ee.Forbidden != 0 {
		return false
	}
	return true
}

// Find returns the first Event in the batch satisfying ee, and whether one
// was found.
func (b Batch) Find(ee ExpectedEvent) (Event, bool) {
	for _, e := range b {
		if ee.Matches(e) {
			return e, true
		}
	}
	return Event{}, false
}

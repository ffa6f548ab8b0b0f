package panoptes

import "testing"

func TestEventTypeBitValues(t *testing.T) {
	cases := []struct {
		name string
		typ  EventType
		want EventType
	}{
		{"Noop", Noop, 0},
		{"Created", Created, 1},
		{"Modified", Modified, 2},
		{"Deleted", Deleted, 4},
		{"Renamed", Renamed, 8},
		{"BufferOverflow", BufferOverflow, 16},
		{"Failed", Failed, 32},
	}
	for _, c := range cases {
		if c.typ != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.typ, c.want)
		}
	}
}

func TestEventTypeUnionAndHas(t *testing.T) {
	u := Created.Union(Modified)
	if !u.Has(Created) || !u.Has(Modified) {
		t.Fatalf("union %v missing an operand bit", u)
	}
	if u.Has(Deleted) {
		t.Fatalf("union %v unexpectedly has Deleted", u)
	}
	if !u.Created() || !u.Modified() {
		t.Fatalf("predicate methods disagree with Has for %v", u)
	}
}

func TestEventTypeString(t *testing.T) {
	if got := Noop.String(); got != "NOOP" {
		t.Fatalf("Noop.String() = %q", got)
	}
	u := Created.Union(Renamed)
	if got := u.String(); got != "CREATED|RENAMED" {
		t.Fatalf("String() = %q, want CREATED|RENAMED", got)
	}
}

func TestEventTypeBitstring(t *testing.T) {
	if got := Created.Bitstring(); got != "1" {
		t.Fatalf("Created.Bitstring() = %q, want %q", got, "1")
	}
	if got := Failed.Bitstring(); got != "100000" {
		t.Fatalf("Failed.Bitstring() = %q, want %q", got, "100000")
	}
}

func TestExpectedEventMatches(t *testing.T) {
	e := Event{RelativePath: "a/b", Type: Created.Union(Modified)}

	ee := ExpectedEvent{Path: "a/b", Required: Created}
	if !ee.Matches(e) {
		t.Fatalf("expected Required-only match to succeed")
	}

	forbidding := ExpectedEvent{Path: "a/b", Required: Created, Forbidden: Deleted}
	if !forbidding.Matches(e) {
		t.Fatalf("expected match when forbidden bit is absent")
	}

	forbidPresent := ExpectedEvent{Path: "a/b", Required: Created, Forbidden: Modified}
	if forbidPresent.Matches(e) {
		t.Fatalf("expected no match when forbidden bit is present")
	}

	wrongPath := ExpectedEvent{Path: "x/y", Required: Created}
	if wrongPath.Matches(e) {
		t.Fatalf("expected no match for a different path")
	}
}

func TestBatchFind(t *testing.T) {
	b := Batch{
		{RelativePath: "one", Type: Created},
		{RelativePath: "two", Type: Deleted},
	}
	if _, ok := b.Find(ExpectedEvent{Path: "two", Required: Deleted}); !ok {
		t.Fatalf("expected to find the second event")
	}
	if _, ok := b.Find(ExpectedEvent{Path: "three", Required: Created}); ok {
		t.Fatalf("expected not to find an absent path")
	}
}

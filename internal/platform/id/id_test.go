package id

import (
	"sort"
	"testing"
)

func TestNewRollIDFormat(t *testing.T) {
	value, err := NewRollID()
	if err != nil {
		t.Fatalf("new roll id: %v", err)
	}
	if len(value) != 26 {
		t.Fatalf("expected 26-character id, got %d", len(value))
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'v') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}

	parsed, err := ParseRollID(value)
	if err != nil {
		t.Fatalf("parse roll id: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}

func TestRollIDsSortByCreation(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		value, err := NewRollID()
		if err != nil {
			t.Fatalf("new roll id: %v", err)
		}
		ids[i] = value
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("expected ids in creation order: %v", ids)
	}
}

func TestParseRollIDRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "not an id", "zzzz"} {
		if _, err := ParseRollID(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

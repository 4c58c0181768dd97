// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"
)

// TestClockNowLocation ensures the clock reports times in its location.
func TestClockNowLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*3600)
	clk := New(loc)

	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	if got.Location() != loc {
		t.Fatalf("expected %v location, got %v", loc, got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockDefaultsToUTC checks a nil location falls back to UTC.
func TestClockDefaultsToUTC(t *testing.T) {
	t.Parallel()

	clk := New(nil)
	if clk.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", clk.Location())
	}
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}

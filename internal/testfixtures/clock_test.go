package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected reference time, got %v", clock.Now())
	}
	if clock.Today() != "2024-03-01" {
		t.Fatalf("unexpected day %q", clock.Today())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	clock := NewClock(ReferenceTime())
	got := clock.Advance(25 * time.Hour)
	if want := ReferenceTime().Add(25 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if clock.Today() != "2024-03-02" {
		t.Fatalf("expected the next day, got %q", clock.Today())
	}

	target := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)
	if !clock.NowFunc()().Equal(target) {
		t.Fatalf("expected %v after Set", target)
	}
}

func TestNilClockFallsBackToWallTime(t *testing.T) {
	var clock *Clock
	before := time.Now()
	if got := clock.NowFunc()(); got.Before(before) {
		t.Fatalf("expected wall time, got %v", got)
	}
}

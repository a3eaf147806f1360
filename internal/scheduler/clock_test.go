package scheduler

import (
	"testing"
	"time"
)

func TestNewSimulatedClock_DefaultsAccelerationWhenNonPositive(t *testing.T) {
	c := NewSimulatedClock(0)
	if c.Acceleration() != 30.0 {
		t.Errorf("expected default acceleration 30.0, got %f", c.Acceleration())
	}
}

func TestSimulatedClock_Current_AdvancesFasterThanRealTime(t *testing.T) {
	// Arrange
	c := NewSimulatedClock(30.0)
	start := c.Current()

	// Act
	time.Sleep(20 * time.Millisecond)
	elapsed := c.Current().Sub(start)

	// Assert: simulated elapsed time should be roughly 30x real elapsed
	// time; allow generous slack for scheduling jitter.
	if elapsed < 400*time.Millisecond {
		t.Errorf("expected simulated elapsed time to be accelerated, got %s", elapsed)
	}
}

func TestSimulatedClock_HoursSince(t *testing.T) {
	c := NewSimulatedClock(30.0)
	past := c.Current().Add(-time.Hour)

	hours := c.HoursSince(past)

	if hours < 0.9 || hours > 1.1 {
		t.Errorf("expected ~1.0 hours, got %f", hours)
	}
}

func TestSimulatedClock_HoursSince_NegativeForFuture(t *testing.T) {
	c := NewSimulatedClock(30.0)
	future := c.Current().Add(time.Hour)

	if hours := c.HoursSince(future); hours >= 0 {
		t.Errorf("expected negative hours for a future instant, got %f", hours)
	}
}

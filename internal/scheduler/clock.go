package scheduler

import "time"

// SimulatedClock accelerates wall-clock time by a fixed factor. It is
// lock-free: current() is derived purely from monotonic wall time, so
// it never needs the Queue Model's lock and never moves backwards.
type SimulatedClock struct {
	acceleration float64
	t0Real       time.Time
	t0Sim        time.Time
}

// NewSimulatedClock starts a clock whose simulated time equals the
// construction instant, then advances at acceleration× real speed.
func NewSimulatedClock(acceleration float64) *SimulatedClock {
	if acceleration <= 0 {
		acceleration = 30.0
	}
	now := time.Now()
	return &SimulatedClock{
		acceleration: acceleration,
		t0Real:       now,
		t0Sim:        now,
	}
}

// Current returns the current simulated instant.
func (c *SimulatedClock) Current() time.Time {
	elapsedReal := time.Since(c.t0Real)
	elapsedSim := time.Duration(float64(elapsedReal) * c.acceleration)
	return c.t0Sim.Add(elapsedSim)
}

// HoursSince returns the simulated hours elapsed between t and now,
// as a decimal. Negative if t is in the simulated future.
func (c *SimulatedClock) HoursSince(t time.Time) float64 {
	return c.Current().Sub(t).Hours()
}

// Acceleration returns the configured speed-up factor.
func (c *SimulatedClock) Acceleration() float64 {
	return c.acceleration
}

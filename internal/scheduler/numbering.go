package scheduler

import (
	"fmt"
	"sync/atomic"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// QueueNumberGenerator produces F<n>/T<n> identifiers from two
// independent, lock-free atomic counters, one per charging mode.
type QueueNumberGenerator struct {
	fast uint64
	slow uint64
}

// NewQueueNumberGenerator returns a generator with both counters at 1.
func NewQueueNumberGenerator() *QueueNumberGenerator {
	return &QueueNumberGenerator{fast: 1, slow: 1}
}

// Next atomically fetches-and-increments the counter for mode and
// returns the formatted queue number.
func (g *QueueNumberGenerator) Next(mode domain.ChargingMode) string {
	if mode == domain.ModeFast {
		n := atomic.AddUint64(&g.fast, 1) - 1
		return fmt.Sprintf("F%d", n)
	}
	n := atomic.AddUint64(&g.slow, 1) - 1
	return fmt.Sprintf("T%d", n)
}

// Reset sets the counter for mode back to 1. Test-only hook.
func (g *QueueNumberGenerator) Reset(mode domain.ChargingMode) {
	if mode == domain.ModeFast {
		atomic.StoreUint64(&g.fast, 1)
		return
	}
	atomic.StoreUint64(&g.slow, 1)
}

// ResetAll resets both counters to 1. Test-only hook.
func (g *QueueNumberGenerator) ResetAll() {
	atomic.StoreUint64(&g.fast, 1)
	atomic.StoreUint64(&g.slow, 1)
}

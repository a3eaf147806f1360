package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// pileSlot is the per-pile structure described in spec §4.4: the pile
// itself, at most one in-progress request, its charging start time,
// and a bounded FIFO of requests waiting behind it.
type pileSlot struct {
	pile          *domain.ChargingPile
	current       *domain.ChargingRequest
	chargingStart time.Time
	queue         []*domain.ChargingRequest
}

// QueueModel holds the waiting area and every pile's slot under a
// single exclusive lock. Callers (Facade, Dispatcher, TickEngine) take
// the lock themselves via Lock/RLock and then use the unexported,
// lock-assuming methods below — apart from snapshot, which takes the
// read lock itself, there is no internal re-locking, so a whole tick
// or a whole dispatch pass can run as one atomic unit.
type QueueModel struct {
	mu sync.RWMutex

	waitingArea []*domain.ChargingRequest
	piles       map[string]*pileSlot
	pileNumbers []string // stable sorted order, for deterministic iteration

	wCap int
	qCap int
}

// NewQueueModel builds an empty model with the given capacities.
func NewQueueModel(waitingAreaCapacity, pileQueueCapacity int) *QueueModel {
	return &QueueModel{
		piles: make(map[string]*pileSlot),
		wCap:  waitingAreaCapacity,
		qCap:  pileQueueCapacity,
	}
}

func (m *QueueModel) Lock()    { m.mu.Lock() }
func (m *QueueModel) Unlock()  { m.mu.Unlock() }
func (m *QueueModel) RLock()   { m.mu.RLock() }
func (m *QueueModel) RUnlock() { m.mu.RUnlock() }

// addPile registers a pile in the model. Called only during start(),
// before the tick engine is running.
func (m *QueueModel) addPile(p *domain.ChargingPile) {
	m.piles[p.Number] = &pileSlot{pile: p}
	m.pileNumbers = append(m.pileNumbers, p.Number)
	sort.Strings(m.pileNumbers)
}

func (m *QueueModel) pileSlotFor(number string) (*pileSlot, bool) {
	s, ok := m.piles[number]
	return s, ok
}

// admitLocked appends request to the tail of the waiting area. Caller
// holds the exclusive lock.
func (m *QueueModel) admitLocked(req *domain.ChargingRequest) error {
	if len(m.waitingArea) >= m.wCap {
		return domain.ErrWaitingAreaFull
	}
	m.waitingArea = append(m.waitingArea, req)
	return nil
}

// admitHeadLocked re-inserts a request at the head of the waiting area,
// used when a fault-handling fallback returns requests there preserving
// relative order (spec §4.5). Capacity is not enforced here: these
// requests already existed in the model and must not be dropped.
func (m *QueueModel) admitHeadLocked(reqs []*domain.ChargingRequest) {
	m.waitingArea = append(append([]*domain.ChargingRequest{}, reqs...), m.waitingArea...)
}

// removeFromWaitingLocked removes and returns the request with id from
// the waiting area, or nil if not present there.
func (m *QueueModel) removeFromWaitingLocked(id string) *domain.ChargingRequest {
	for i, r := range m.waitingArea {
		if r.ID == id {
			m.waitingArea = append(m.waitingArea[:i], m.waitingArea[i+1:]...)
			return r
		}
	}
	return nil
}

// findLocked locates a request anywhere in the model: waiting area, a
// pile's queue, or a pile's current_charging slot.
func (m *QueueModel) findLocked(id string) (req *domain.ChargingRequest, pileNumber string, inQueue bool) {
	for _, r := range m.waitingArea {
		if r.ID == id {
			return r, "", false
		}
	}
	for _, number := range m.pileNumbers {
		slot := m.piles[number]
		if slot.current != nil && slot.current.ID == id {
			return slot.current, number, false
		}
		for _, r := range slot.queue {
			if r.ID == id {
				return r, number, true
			}
		}
	}
	return nil, "", false
}

// removeByUserLocked removes and returns every request belonging to
// userID, from wherever it currently lives.
func (m *QueueModel) removeByUserLocked(userID string) []*domain.ChargingRequest {
	var found []*domain.ChargingRequest

	remaining := m.waitingArea[:0]
	for _, r := range m.waitingArea {
		if r.UserID == userID {
			found = append(found, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	m.waitingArea = remaining

	for _, number := range m.pileNumbers {
		slot := m.piles[number]
		if slot.current != nil && slot.current.UserID == userID {
			found = append(found, slot.current)
			m.clearCurrentLocked(number)
		}
		kept := slot.queue[:0]
		for _, r := range slot.queue {
			if r.UserID == userID {
				found = append(found, r)
			} else {
				kept = append(kept, r)
			}
		}
		slot.queue = kept
	}
	return found
}

// assignToPileLocked pushes req onto the pile's pending queue.
func (m *QueueModel) assignToPileLocked(pileNumber string, req *domain.ChargingRequest) error {
	slot := m.piles[pileNumber]
	if len(slot.queue) >= m.qCap {
		return domain.ErrPileQueueFull
	}
	slot.queue = append(slot.queue, req)
	return nil
}

// promoteNextLocked pops the head of the pile's queue into
// current_charging, marking it Charging with the clock's current
// instant as its start time. Returns nil if the queue is empty.
func (m *QueueModel) promoteNextLocked(pileNumber string, now time.Time) *domain.ChargingRequest {
	slot := m.piles[pileNumber]
	if len(slot.queue) == 0 {
		return nil
	}
	req := slot.queue[0]
	slot.queue = slot.queue[1:]

	req.Status = domain.StatusCharging
	req.UpdatedAt = now
	slot.current = req
	slot.chargingStart = now
	slot.pile.Status = domain.PileCharging
	return req
}

// clearCurrentLocked drops a pile's in-progress request without
// producing a record (used by cancel-while-charging and fault
// handling). The pile's status is left to the caller.
func (m *QueueModel) clearCurrentLocked(pileNumber string) {
	slot := m.piles[pileNumber]
	slot.current = nil
	slot.chargingStart = time.Time{}
}

// remainingCurrentLocked returns the kWh still owed by a pile's
// current_charging request at simulated instant now, or 0 if idle.
func (m *QueueModel) remainingCurrentLocked(pileNumber string, now time.Time, powerFor func(*domain.ChargingPile) float64) float64 {
	slot := m.piles[pileNumber]
	if slot.current == nil {
		return 0
	}
	elapsedHours := now.Sub(slot.chargingStart).Hours()
	delivered := elapsedHours * powerFor(slot.pile)
	remaining := slot.current.AmountKWh - delivered
	if remaining < 0 {
		return 0
	}
	return remaining
}

// queuedAmountLocked sums the amount_kwh of every request queued
// (not current_charging) at the pile.
func (m *QueueModel) queuedAmountLocked(pileNumber string) float64 {
	var total float64
	for _, r := range m.piles[pileNumber].queue {
		total += r.AmountKWh
	}
	return total
}

// PileSnapshot is the read-only view of a single pile exposed via
// Snapshot (spec §4.7).
type PileSnapshot struct {
	Number            string
	Mode              domain.ChargingMode
	Status            domain.PileStatus
	IsIdle            bool
	CurrentRequest    *domain.ChargingRequest
	ChargingProgress  float64
	Queue             []*domain.ChargingRequest
	CumulativeCounters domain.PileCounters
}

// Snapshot is the read-only view of the whole model exposed via
// Facade.Snapshot.
type Snapshot struct {
	WaitingArea      []*domain.ChargingRequest
	WaitingByMode    map[domain.ChargingMode]int
	Piles            []PileSnapshot
}

// snapshot builds a deep, independent copy of the model under a shared
// read lock. powerFor and now are used to compute charging_progress%.
func (m *QueueModel) snapshot(now time.Time, powerFor func(*domain.ChargingPile) float64) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	waiting := make([]*domain.ChargingRequest, len(m.waitingArea))
	byMode := map[domain.ChargingMode]int{domain.ModeFast: 0, domain.ModeSlow: 0}
	for i, r := range m.waitingArea {
		cp := *r
		waiting[i] = &cp
		byMode[r.Mode]++
	}

	piles := make([]PileSnapshot, 0, len(m.pileNumbers))
	for _, number := range m.pileNumbers {
		slot := m.piles[number]

		ps := PileSnapshot{
			Number: number,
			Mode:   slot.pile.Mode,
			Status: slot.pile.Status,
			IsIdle: slot.current == nil,
			CumulativeCounters: domain.PileCounters{
				PileNumber:     number,
				Sessions:       slot.pile.TotalSessions,
				ChargeHours:    slot.pile.TotalChargeHours,
				KWh:            slot.pile.TotalKWh,
				ElectricityFee: slot.pile.TotalElectricityFee,
				ServiceFee:     slot.pile.TotalServiceFee,
			},
		}

		if slot.current != nil {
			cp := *slot.current
			ps.CurrentRequest = &cp
			power := powerFor(slot.pile)
			delivered := now.Sub(slot.chargingStart).Hours() * power
			progress := 100 * delivered / slot.current.AmountKWh
			if progress > 100 {
				progress = 100
			}
			if progress < 0 {
				progress = 0
			}
			ps.ChargingProgress = progress
		}

		q := make([]*domain.ChargingRequest, len(slot.queue))
		for i, r := range slot.queue {
			cp := *r
			q[i] = &cp
		}
		ps.Queue = q

		piles = append(piles, ps)
	}

	return Snapshot{WaitingArea: waiting, WaitingByMode: byMode, Piles: piles}
}

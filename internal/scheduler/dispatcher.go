package scheduler

import (
	"sort"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// Dispatcher selects the best pile for each waiting request by minimum
// estimated completion time, and handles the re-dispatch fallout of
// pile faults and recoveries (spec §4.5). All of its methods assume
// the caller already holds the QueueModel's exclusive lock — the
// Dispatcher never locks on its own; it is invoked from within a tick
// or a Facade operation that already owns the lock for the duration.
type Dispatcher struct {
	model     *QueueModel
	clock     *SimulatedClock
	cfg       Config
	isCalling int32 // atomic bool; guards dispatch against concurrent fault/recovery handling
	log       *zap.Logger
}

// NewDispatcher builds a Dispatcher over model, using clock for
// completion-time estimates and cfg for power ratings and capacities.
func NewDispatcher(model *QueueModel, clock *SimulatedClock, cfg Config, log *zap.Logger) *Dispatcher {
	return &Dispatcher{model: model, clock: clock, cfg: cfg, log: log}
}

func (d *Dispatcher) startCalling() { atomic.StoreInt32(&d.isCalling, 1) }
func (d *Dispatcher) stopCalling()  { atomic.StoreInt32(&d.isCalling, 0) }
func (d *Dispatcher) calling() bool { return atomic.LoadInt32(&d.isCalling) == 1 }

// completionTime estimates the simulated hours until req would finish
// if assigned to pileNumber, per spec §4.5's T_comp formula.
func (d *Dispatcher) completionTime(pileNumber string, req *domain.ChargingRequest) float64 {
	slot := d.model.piles[pileNumber]
	power := d.cfg.PowerFor(slot.pile)

	remaining := d.model.remainingCurrentLocked(pileNumber, d.clock.Current(), d.cfg.PowerFor)
	queued := d.model.queuedAmountLocked(pileNumber)

	return (remaining+queued)/power + req.AmountKWh/power
}

// selectBestPile returns the eligible pile number with the smallest
// T_comp for req, ties broken by ascending pile number (pileNumbers is
// already sorted), or "" if none qualifies. excluded piles (e.g. a
// pile mid-fault-handling) are skipped.
func (d *Dispatcher) selectBestPile(req *domain.ChargingRequest, excluded map[string]bool) string {
	best := ""
	bestTime := -1.0

	for _, number := range d.model.pileNumbers {
		if excluded[number] {
			continue
		}
		slot := d.model.piles[number]
		if slot.pile.Mode != req.Mode || !slot.pile.Status.Eligible() {
			continue
		}
		if len(slot.queue) >= d.cfg.PileQueueCapacity {
			continue
		}

		t := d.completionTime(number, req)
		if best == "" || t < bestTime {
			best = number
			bestTime = t
		}
	}
	return best
}

// Run performs one dispatch pass: for each request in the waiting
// area, in FIFO order, assign it to its best pile if one is eligible;
// stop at the first request with no eligible pile, preserving waiting
// area fairness (spec §4.5).
func (d *Dispatcher) Run() {
	if !d.calling() {
		return
	}

	for {
		if len(d.model.waitingArea) == 0 {
			return
		}
		head := d.model.waitingArea[0]

		best := d.selectBestPile(head, nil)
		if best == "" {
			return
		}

		d.model.removeFromWaitingLocked(head.ID)
		if err := d.model.assignToPileLocked(best, head); err != nil {
			// Queue filled between selection and assignment is not
			// possible under a held exclusive lock; guard anyway.
			d.model.admitHeadLocked([]*domain.ChargingRequest{head})
			return
		}
	}
}

// HandleFault transitions pileNumber to Fault and re-dispatches its
// current_charging request plus its queue to other piles of the same
// mode, preserving their original queue_number order. Requests that
// find no eligible pile return to the head of the waiting area.
func (d *Dispatcher) HandleFault(pileNumber string) error {
	slot, ok := d.model.pileSlotFor(pileNumber)
	if !ok {
		return domain.ErrPileNotFound
	}

	d.stopCalling()
	defer d.startCalling()

	var displaced []*domain.ChargingRequest
	if slot.current != nil {
		displaced = append(displaced, slot.current)
	}
	displaced = append(displaced, slot.queue...)
	sort.SliceStable(displaced, func(i, j int) bool {
		return queueNumberOrdinal(displaced[i].QueueNumber) < queueNumberOrdinal(displaced[j].QueueNumber)
	})

	slot.pile.Status = domain.PileFault
	d.model.clearCurrentLocked(pileNumber)
	slot.queue = nil

	d.redistribute(displaced, map[string]bool{pileNumber: true})

	if d.log != nil {
		d.log.Warn("pile fault handled", zap.String("pile_number", pileNumber), zap.Int("displaced", len(displaced)))
	}
	return nil
}

// HandleRecovery transitions pileNumber back to Available and performs
// a same-mode global reshuffle: every queued (not current_charging)
// request on a pile of the same mode is collected, sorted by
// queue_number, and redistributed across all same-mode piles including
// the one just repaired.
func (d *Dispatcher) HandleRecovery(pileNumber string) error {
	slot, ok := d.model.pileSlotFor(pileNumber)
	if !ok {
		return domain.ErrPileNotFound
	}

	d.stopCalling()
	defer d.startCalling()

	mode := slot.pile.Mode
	slot.pile.Status = domain.PileAvailable

	var collected []*domain.ChargingRequest
	for _, number := range d.model.pileNumbers {
		s := d.model.piles[number]
		if s.pile.Mode != mode {
			continue
		}
		collected = append(collected, s.queue...)
		s.queue = nil
	}

	sort.Slice(collected, func(i, j int) bool {
		return queueNumberOrdinal(collected[i].QueueNumber) < queueNumberOrdinal(collected[j].QueueNumber)
	})

	d.redistribute(collected, nil)

	if d.log != nil {
		d.log.Info("pile recovery handled", zap.String("pile_number", pileNumber), zap.Int("reshuffled", len(collected)))
	}
	return nil
}

// queueNumberOrdinal extracts the numeric suffix of a queue_number
// (e.g. "F12" -> 12) so requests sort by arrival order rather than by
// string comparison, which would place "F10" before "F2".
func queueNumberOrdinal(queueNumber string) int {
	i := 0
	for i < len(queueNumber) && (queueNumber[i] < '0' || queueNumber[i] > '9') {
		i++
	}
	n, err := strconv.Atoi(queueNumber[i:])
	if err != nil {
		return 0
	}
	return n
}

// redistribute assigns each request to its best eligible pile
// (excluding any pile number in excluded), falling back to the head of
// the waiting area — in original order — for any that find none. Fault
// and recovery handling must leave the model fully settled the moment
// they return (spec §8 scenario 5), so unlike the regular dispatch
// pass this promotes a newly-idle pile's head request immediately
// rather than waiting for the next tick.
func (d *Dispatcher) redistribute(reqs []*domain.ChargingRequest, excluded map[string]bool) {
	var fallback []*domain.ChargingRequest

	for _, req := range reqs {
		best := d.selectBestPile(req, excluded)
		if best == "" {
			fallback = append(fallback, req)
			continue
		}
		// assignToPileLocked cannot fail here: selectBestPile already
		// checked the queue has room under the same held lock.
		_ = d.model.assignToPileLocked(best, req)
		d.promoteIfIdleLocked(best)
	}

	if len(fallback) > 0 {
		d.model.admitHeadLocked(fallback)
	}
}

// promoteIfIdleLocked mirrors the Tick Engine's step 2 (promote the
// next queued request on a pile that is idle and Available) but runs
// synchronously, since redistribute's callers must not leave a pile
// sitting on a non-empty queue with nothing current_charging.
func (d *Dispatcher) promoteIfIdleLocked(pileNumber string) {
	slot := d.model.piles[pileNumber]
	if slot.current != nil || slot.pile.Status != domain.PileAvailable || len(slot.queue) == 0 {
		return
	}
	d.model.promoteNextLocked(pileNumber, d.clock.Current())
}

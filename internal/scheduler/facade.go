// Package scheduler implements the charging station's control core:
// the queue model, dispatcher, simulated clock, tick engine, and the
// Facade that exposes them as a single in-process control surface.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/billing"
	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
)

func newRequestID() string { return uuid.NewString() }

// Facade is the sole external surface of the scheduling core (spec
// §4.7). It owns the Queue Model, the Dispatcher, the Simulated Clock
// and the Tick Engine, and exposes in-process operations. The only I/O
// on this surface is ReportFault and Repair handing a domain event to
// the EventPublisher (a no-op when it has no queue).
type Facade struct {
	mu sync.Mutex // guards start/stop lifecycle only, not the Queue Model

	cfg       Config
	model     *QueueModel
	clock     *SimulatedClock
	numbering *QueueNumberGenerator
	dispatch  *Dispatcher
	calc      *billing.Calculator
	persist   persistWriter
	events    *EventPublisher
	tick      *TickEngine
	log       *zap.Logger

	running bool
	cancel  context.CancelFunc
}

// NewFacade wires together a fresh scheduling core. persist and events
// may both be nil in tests that don't care about out-of-process
// side-effects.
func NewFacade(cfg Config, calc *billing.Calculator, persist persistWriter, events *EventPublisher, log *zap.Logger) *Facade {
	model := NewQueueModel(cfg.WaitingAreaCapacity, cfg.PileQueueCapacity)
	clock := NewSimulatedClock(cfg.Acceleration)
	return &Facade{
		cfg:       cfg,
		model:     model,
		clock:     clock,
		numbering: NewQueueNumberGenerator(),
		dispatch:  NewDispatcher(model, clock, cfg, log),
		calc:      calc,
		persist:   persist,
		events:    events,
		log:       log,
	}
}

// Start initializes piles (if the model has none yet), enables
// dispatch, and spawns the Tick Engine.
func (f *Facade) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return domain.ErrAlreadyRunning
	}

	f.model.Lock()
	if len(f.model.pileNumbers) == 0 {
		for _, ip := range f.cfg.InitialPiles {
			f.model.addPile(&domain.ChargingPile{
				ID:     ip.Number,
				Number: ip.Number,
				Mode:   ip.Mode,
				Status: domain.PileAvailable,
			})
		}
	}
	f.model.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	f.tick = NewTickEngine(f.model, f.clock, f.dispatch, f.calc, f.persist, f.events, f.cfg, time.Duration(f.cfg.TickInterval)*time.Millisecond, f.log)
	f.dispatch.startCalling()
	f.tick.Start(ctx)

	f.running = true
	if f.log != nil {
		f.log.Info("scheduler started", zap.Int("piles", len(f.model.pileNumbers)))
	}
	return nil
}

// Stop disables dispatch and terminates the Tick Engine.
func (f *Facade) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return domain.ErrNotRunning
	}

	f.dispatch.stopCalling()
	f.cancel()
	f.tick.Stop()
	f.running = false

	if f.log != nil {
		f.log.Info("scheduler stopped")
	}
	return nil
}

// Submit allocates a queue number and admits a new request to the
// waiting area.
func (f *Facade) Submit(userID string, mode domain.ChargingMode, amountKWh float64) (*domain.ChargingRequest, error) {
	if !mode.Valid() {
		return nil, domain.ErrInvalidMode
	}
	if amountKWh <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	req := &domain.ChargingRequest{
		ID:          newRequestID(),
		UserID:      userID,
		Mode:        mode,
		AmountKWh:   amountKWh,
		QueueNumber: f.numbering.Next(mode),
		Status:      domain.StatusWaiting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	f.model.Lock()
	defer f.model.Unlock()

	if err := f.model.admitLocked(req); err != nil {
		telemetry.RequestsRejectedTotal.WithLabelValues("waiting_area_full").Inc()
		return nil, err
	}
	telemetry.RequestsAdmittedTotal.WithLabelValues(string(mode)).Inc()
	return req, nil
}

// Cancel removes a request wherever it currently lives. If it was
// charging, the slot is cleared without producing a record and the
// next queued request (if any) is promoted.
func (f *Facade) Cancel(requestID string) error {
	f.model.Lock()
	defer f.model.Unlock()

	req, pileNumber, inQueue := f.model.findLocked(requestID)
	if req == nil || !req.CanCancel() {
		return domain.ErrNotFound
	}

	f.cancelLocked(req, pileNumber, inQueue)
	return nil
}

// CancelByUser cancels every request belonging to userID, wherever it
// currently lives, applying the same semantics as Cancel.
func (f *Facade) CancelByUser(userID string) int {
	f.model.Lock()
	defer f.model.Unlock()

	var chargingPiles []string
	for _, number := range f.model.pileNumbers {
		if cur := f.model.piles[number].current; cur != nil && cur.UserID == userID {
			chargingPiles = append(chargingPiles, number)
		}
	}

	removed := f.model.removeByUserLocked(userID)
	for _, number := range chargingPiles {
		slot := f.model.piles[number]
		if len(slot.queue) > 0 {
			f.model.promoteNextLocked(number, f.clock.Current())
		} else {
			slot.pile.Status = domain.PileAvailable
		}
	}
	for _, req := range removed {
		stage := "waiting"
		if req.Status == domain.StatusCharging {
			stage = "charging"
		}
		req.Status = domain.StatusCancelled
		telemetry.SessionsCancelledTotal.WithLabelValues(stage).Inc()
	}
	return len(removed)
}

func (f *Facade) cancelLocked(req *domain.ChargingRequest, pileNumber string, inQueue bool) {
	stage := "waiting"
	switch {
	case pileNumber != "" && !inQueue:
		// req is the pile's current_charging request.
		stage = "charging"
		f.promoteAfterCancelLocked(req)
	case pileNumber != "" && inQueue:
		stage = "queued"
		slot := f.model.piles[pileNumber]
		for i, r := range slot.queue {
			if r.ID == req.ID {
				slot.queue = append(slot.queue[:i], slot.queue[i+1:]...)
				break
			}
		}
	default:
		f.model.removeFromWaitingLocked(req.ID)
	}

	req.Status = domain.StatusCancelled
	telemetry.SessionsCancelledTotal.WithLabelValues(stage).Inc()
}

// promoteAfterCancelLocked clears the pile currently holding req and
// promotes its next queued request, if any. req's own status is set
// by the caller.
func (f *Facade) promoteAfterCancelLocked(req *domain.ChargingRequest) {
	for _, number := range f.model.pileNumbers {
		slot := f.model.piles[number]
		if slot.current != nil && slot.current.ID == req.ID {
			f.model.clearCurrentLocked(number)
			if len(slot.queue) > 0 {
				f.model.promoteNextLocked(number, f.clock.Current())
			} else {
				slot.pile.Status = domain.PileAvailable
			}
			return
		}
	}
}

// UpdateAmount changes a request's amount_kwh. Only legal while the
// request is Waiting or parked in a pile queue (not current_charging).
func (f *Facade) UpdateAmount(requestID string, newAmount float64) error {
	if newAmount <= 0 {
		return domain.ErrInvalidAmount
	}

	f.model.Lock()
	defer f.model.Unlock()

	req, _, _ := f.model.findLocked(requestID)
	if req == nil {
		return domain.ErrNotFound
	}
	if !req.CanModify() {
		return domain.ErrCannotModify
	}

	req.AmountKWh = newAmount
	req.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateMode changes a request's charging mode. The request is
// removed from wherever it sits and re-admitted to the tail of the
// waiting area with a freshly allocated queue number (spec §4.7: the
// request is "re-queued").
func (f *Facade) UpdateMode(requestID string, newMode domain.ChargingMode) error {
	if !newMode.Valid() {
		return domain.ErrInvalidMode
	}

	f.model.Lock()
	defer f.model.Unlock()

	req, pileNumber, inQueue := f.model.findLocked(requestID)
	if req == nil {
		return domain.ErrNotFound
	}
	if !req.CanModify() {
		return domain.ErrCannotModify
	}

	if pileNumber != "" && inQueue {
		slot := f.model.piles[pileNumber]
		for i, r := range slot.queue {
			if r.ID == req.ID {
				slot.queue = append(slot.queue[:i], slot.queue[i+1:]...)
				break
			}
		}
	} else {
		f.model.removeFromWaitingLocked(req.ID)
	}

	req.Mode = newMode
	req.QueueNumber = f.numbering.Next(newMode)
	req.UpdatedAt = time.Now().UTC()

	return f.model.admitLocked(req)
}

// ReportFault transitions a pile to Fault and triggers dispatcher
// re-dispatch of its displaced requests (spec §4.5).
func (f *Facade) ReportFault(pileNumber string) error {
	f.model.Lock()
	defer f.model.Unlock()

	if _, ok := f.model.pileSlotFor(pileNumber); !ok {
		return domain.ErrPileNotFound
	}
	telemetry.PileFaultsTotal.WithLabelValues(pileNumber).Inc()
	err := f.dispatch.HandleFault(pileNumber)
	if err == nil {
		f.events.PublishPileFault(pileNumber)
	}
	return err
}

// Repair transitions a pile back to Available and triggers the
// same-mode global reshuffle (spec §4.5).
func (f *Facade) Repair(pileNumber string) error {
	f.model.Lock()
	defer f.model.Unlock()

	if _, ok := f.model.pileSlotFor(pileNumber); !ok {
		return domain.ErrPileNotFound
	}
	telemetry.PileRepairsTotal.WithLabelValues(pileNumber).Inc()
	err := f.dispatch.HandleRecovery(pileNumber)
	if err == nil {
		f.events.PublishPileRepaired(pileNumber)
	}
	return err
}

// Snapshot returns a read-only, independent view of the whole model.
func (f *Facade) Snapshot() Snapshot {
	return f.model.snapshot(f.clock.Current(), f.cfg.PowerFor)
}

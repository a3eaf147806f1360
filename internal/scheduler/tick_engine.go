package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
)

// completionEvent bundles the persistence side-effects of one finished
// session, handed off to the async writer after the lock is released
// (spec §5: persistence I/O happens outside the model lock).
type completionEvent struct {
	record   *domain.ChargingRecord
	counters domain.PileCounters
	pile     string
	status   domain.PileStatus
}

// TickEngine is the periodic task that advances charging progress. It
// is re-entrant-safe: a running flag ensures the driver skips a tick
// whose predecessor has not finished (spec §4.6).
type TickEngine struct {
	model      *QueueModel
	clock      *SimulatedClock
	dispatcher *Dispatcher
	calc       feeCalculator
	persist    persistWriter
	events     *EventPublisher
	cfg        Config
	log        *zap.Logger

	interval time.Duration
	running  int32
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// feeCalculator is the minimal surface the tick engine needs from
// internal/billing.Calculator, kept as an interface so tests can stub it.
type feeCalculator interface {
	Calculate(userID, pileNumber string, mode domain.ChargingMode, amountKWh float64, start, end time.Time) *domain.ChargingRecord
}

// persistWriter is the minimal surface the tick engine needs to hand
// off completed-session side-effects asynchronously.
type persistWriter interface {
	Enqueue(events []completionEvent)
}

// NewTickEngine builds a TickEngine. interval is the real-time period
// between ticks (spec default 100ms).
func NewTickEngine(model *QueueModel, clock *SimulatedClock, dispatcher *Dispatcher, calc feeCalculator, persist persistWriter, events *EventPublisher, cfg Config, interval time.Duration, log *zap.Logger) *TickEngine {
	return &TickEngine{
		model:      model,
		clock:      clock,
		dispatcher: dispatcher,
		calc:       calc,
		persist:    persist,
		events:     events,
		cfg:        cfg,
		interval:   interval,
		log:        log,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start spawns the tick goroutine. Call Stop to terminate it.
func (e *TickEngine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Stop signals the tick goroutine to exit and waits for it to do so.
func (e *TickEngine) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

func (e *TickEngine) run(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
				telemetry.TicksSkippedTotal.Inc()
				continue
			}
			e.tick()
			atomic.StoreInt32(&e.running, 0)
		}
	}
}

// tick runs exactly one iteration of spec §4.6 under the model's
// exclusive lock, then hands off persistence side-effects after
// releasing it.
func (e *TickEngine) tick() {
	start := time.Now()
	defer func() {
		telemetry.TickDuration.Observe(time.Since(start).Seconds())
	}()

	e.model.Lock()
	events := e.tickLocked()
	e.model.Unlock()

	if len(events) > 0 && e.persist != nil {
		e.persist.Enqueue(events)
	}
}

func (e *TickEngine) tickLocked() []completionEvent {
	now := e.clock.Current()
	var events []completionEvent

	// Step 1: finalize any pile whose current_charging has reached its
	// requested amount.
	for _, number := range e.model.pileNumbers {
		slot := e.model.piles[number]
		if slot.pile.Status != domain.PileCharging || slot.current == nil {
			continue
		}

		power := e.cfg.PowerFor(slot.pile)
		hours := e.clock.HoursSince(slot.chargingStart)
		if hours*power < slot.current.AmountKWh {
			continue
		}

		req := slot.current
		req.Status = domain.StatusCompleted
		req.UpdatedAt = now

		record := e.calc.Calculate(req.UserID, number, req.Mode, req.AmountKWh, slot.chargingStart, now)
		slot.pile.Add(record.Counters())

		e.model.clearCurrentLocked(number)
		slot.pile.Status = domain.PileAvailable

		telemetry.RecordSessionCompleted(number, string(req.Mode), req.AmountKWh, record.ElectricityFee, record.ServiceFee, now.Sub(slot.chargingStart).Seconds())
		e.events.PublishSessionCompleted(record)

		events = append(events, completionEvent{
			record:   record,
			counters: record.Counters(),
			pile:     number,
			status:   domain.PileAvailable,
		})
	}

	// Step 2: promote the next queued request on any pile now idle.
	for _, number := range e.model.pileNumbers {
		slot := e.model.piles[number]
		if slot.pile.Status != domain.PileAvailable || len(slot.queue) == 0 {
			continue
		}
		e.model.promoteNextLocked(number, now)
	}

	// Step 3: invoke the dispatcher.
	e.dispatcher.Run()

	for _, number := range e.model.pileNumbers {
		telemetry.PileQueueDepth.WithLabelValues(number).Set(float64(len(e.model.piles[number].queue)))
	}
	telemetry.WaitingAreaOccupancy.Set(float64(len(e.model.waitingArea)))

	return events
}

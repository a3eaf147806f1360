package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/adapter/queue"
	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
	"github.com/voltgrid/evse-scheduler/internal/ports"
)

// outboxEntry is what gets republished to the durable outbox queue when
// a persistence write fails or the breaker is open — an external
// reconciler drains it later. The scheduling core's own state is never
// blocked or rolled back by this (spec §7: PersistenceError is logged
// and swallowed).
type outboxEntry struct {
	Operation string      `json:"operation"`
	Payload   interface{} `json:"payload"`
	FailedAt  time.Time   `json:"failed_at"`
}

// AsyncPersistor drains completion events emitted by the Tick Engine
// and writes them to the PersistenceCollaborator off the model's lock.
// Calls are wrapped in a circuit breaker so a degraded database does
// not pile up goroutines or retry storms; tripped-breaker and failed
// writes are republished to a durable outbox for later reconciliation
// instead of being silently dropped.
type AsyncPersistor struct {
	repo    ports.PersistenceCollaborator
	outbox  queue.MessageQueue
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger

	queueCh chan []completionEvent
	doneCh  chan struct{}
}

// NewAsyncPersistor builds a persistor backed by repo, with failed or
// breaker-rejected writes republished onto outbox (may be nil to
// disable the fallback, e.g. in tests).
func NewAsyncPersistor(repo ports.PersistenceCollaborator, outbox queue.MessageQueue, log *zap.Logger) *AsyncPersistor {
	p := &AsyncPersistor{
		repo:    repo,
		outbox:  outbox,
		log:     log,
		queueCh: make(chan []completionEvent, 256),
		doneCh:  make(chan struct{}),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "persistence-collaborator",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			if log != nil {
				log.Warn("circuit breaker state changed", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			}
		},
	})
	go p.run()
	return p
}

// Enqueue hands a batch of completion events to the background writer.
// If the channel buffer is full, the batch is written synchronously on
// the caller's goroutine instead, so the caller blocks for those writes.
func (p *AsyncPersistor) Enqueue(events []completionEvent) {
	select {
	case p.queueCh <- events:
	default:
		if p.log != nil {
			p.log.Warn("persistence queue full, writing batch synchronously", zap.Int("batch_size", len(events)))
		}
		p.writeBatch(events)
	}
}

// Close stops the background writer after draining pending batches.
func (p *AsyncPersistor) Close() {
	close(p.queueCh)
	<-p.doneCh
}

func (p *AsyncPersistor) run() {
	defer close(p.doneCh)
	for events := range p.queueCh {
		p.writeBatch(events)
	}
}

func (p *AsyncPersistor) writeBatch(events []completionEvent) {
	ctx := context.Background()
	for _, ev := range events {
		p.saveRecord(ctx, ev)
		p.updateCounters(ctx, ev)
		p.updateStatus(ctx, ev)
	}
}

func (p *AsyncPersistor) saveRecord(ctx context.Context, ev completionEvent) {
	start := time.Now()
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.repo.SaveRecord(ctx, ev.record)
	})
	telemetry.PersistenceLatency.WithLabelValues("save_record").Observe(time.Since(start).Seconds())
	if err != nil {
		p.onFailure("save_record", ev.record, err)
	}
}

func (p *AsyncPersistor) updateCounters(ctx context.Context, ev completionEvent) {
	start := time.Now()
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.repo.UpdatePileCounters(ctx, ev.counters)
	})
	telemetry.PersistenceLatency.WithLabelValues("update_counters").Observe(time.Since(start).Seconds())
	if err != nil {
		p.onFailure("update_counters", ev.counters, err)
	}
}

func (p *AsyncPersistor) updateStatus(ctx context.Context, ev completionEvent) {
	start := time.Now()
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.repo.UpdatePileStatus(ctx, ev.pile, ev.status)
	})
	telemetry.PersistenceLatency.WithLabelValues("update_status").Observe(time.Since(start).Seconds())
	if err != nil {
		p.onFailure("update_status", map[string]string{"pile_number": ev.pile, "status": string(ev.status)}, err)
	}
}

func (p *AsyncPersistor) onFailure(operation string, payload interface{}, err error) {
	telemetry.PersistenceErrorsTotal.WithLabelValues(operation).Inc()
	if p.log != nil {
		p.log.Error("persistence write failed, logged and swallowed", zap.String("operation", operation), zap.Error(err))
	}
	if p.outbox == nil {
		return
	}
	data, marshalErr := json.Marshal(outboxEntry{Operation: operation, Payload: payload, FailedAt: time.Now().UTC()})
	if marshalErr != nil {
		return
	}
	if pubErr := p.outbox.Publish("persistence.retry", data); pubErr != nil && p.log != nil {
		p.log.Error("failed to enqueue persistence retry to outbox", zap.Error(pubErr))
	}
}

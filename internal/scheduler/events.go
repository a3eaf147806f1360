package scheduler

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/adapter/queue"
	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/infrastructure/circuitbreaker"
	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
)

// Domain event subjects for the message bus. These are
// fire-and-forget notifications for out-of-scope collaborators
// (dashboards, notification services); the scheduling core never
// waits on a subscriber. EventPublisher has methods for the
// session.completed, pile.fault and pile.repaired subjects only;
// nothing publishes request.admitted.
const (
	SubjectRequestAdmitted = "request.admitted"
	SubjectSessionCompleted = "session.completed"
	SubjectPileFault        = "pile.fault"
	SubjectPileRepaired     = "pile.repaired"
)

// EventPublisher publishes domain events onto a message queue. A nil
// EventPublisher (or nil underlying queue) makes every publish a no-op,
// so the scheduler can run without a broker in tests. Publishes go
// through a circuit breaker so a wedged broker degrades to dropped
// events instead of piling up blocked goroutines.
type EventPublisher struct {
	mq  queue.MessageQueue
	cb  *circuitbreaker.CircuitBreaker
	log *zap.Logger
}

// NewEventPublisher wraps mq for domain-event publication.
func NewEventPublisher(mq queue.MessageQueue, log *zap.Logger) *EventPublisher {
	settings := circuitbreaker.DefaultSettings()
	settings.Name = "event-publisher"
	return &EventPublisher{
		mq:  mq,
		cb:  circuitbreaker.New(settings, log),
		log: log,
	}
}

type sessionCompletedEvent struct {
	RequestID      string    `json:"request_id"`
	UserID         string    `json:"user_id"`
	PileNumber     string    `json:"pile_number"`
	Mode           string    `json:"mode"`
	AmountKWh      float64   `json:"amount_kwh"`
	ElectricityFee float64   `json:"electricity_fee"`
	ServiceFee     float64   `json:"service_fee"`
	TotalFee       float64   `json:"total_fee"`
	CompletedAt    time.Time `json:"completed_at"`
}

type pileStatusEvent struct {
	PileNumber string    `json:"pile_number"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
}

func (p *EventPublisher) publish(subject string, payload interface{}) {
	if p == nil || p.mq == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		if p.log != nil {
			p.log.Error("failed to marshal domain event", zap.String("subject", subject), zap.Error(err))
		}
		return
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.mq.Publish(subject, data)
	})
	if err != nil {
		telemetry.MessageQueueMessagesTotal.WithLabelValues(subject, "failed").Inc()
		if p.log != nil {
			p.log.Warn("failed to publish domain event", zap.String("subject", subject), zap.Error(err))
		}
		return
	}
	telemetry.MessageQueueMessagesTotal.WithLabelValues(subject, "published").Inc()
}

// PublishSessionCompleted announces a finished charging session.
func (p *EventPublisher) PublishSessionCompleted(record *domain.ChargingRecord) {
	p.publish(SubjectSessionCompleted, sessionCompletedEvent{
		RequestID:      record.ID,
		UserID:         record.UserID,
		PileNumber:     record.PileNumber,
		Mode:           string(record.Mode),
		AmountKWh:      record.AmountKWh,
		ElectricityFee: record.ElectricityFee,
		ServiceFee:     record.ServiceFee,
		TotalFee:       record.TotalFee,
		CompletedAt:    record.EndTime,
	})
}

// PublishPileFault announces a pile transitioning to Fault.
func (p *EventPublisher) PublishPileFault(pileNumber string) {
	p.publish(SubjectPileFault, pileStatusEvent{PileNumber: pileNumber, Status: string(domain.PileFault), At: time.Now().UTC()})
}

// PublishPileRepaired announces a pile transitioning back to Available.
func (p *EventPublisher) PublishPileRepaired(pileNumber string) {
	p.publish(SubjectPileRepaired, pileStatusEvent{PileNumber: pileNumber, Status: string(domain.PileAvailable), At: time.Now().UTC()})
}

package scheduler

import (
	"testing"
	"time"

	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/mocks"
)

func TestEventPublisher_Publish_NilSafe(t *testing.T) {
	var p *EventPublisher
	p.PublishPileFault("F1")

	empty := NewEventPublisher(nil, nil)
	empty.PublishPileFault("F1")
}

func TestEventPublisher_PublishSessionCompleted_PublishesToMQ(t *testing.T) {
	// Arrange
	mq := mocks.NewMockMessageQueue()
	p := NewEventPublisher(mq, nil)
	record := &domain.ChargingRecord{
		ID:         "rec-1",
		UserID:     "u1",
		PileNumber: "F1",
		Mode:       domain.ModeFast,
		AmountKWh:  10,
		EndTime:    time.Now(),
	}

	// Act
	p.PublishSessionCompleted(record)

	// Assert
	msgs := mq.GetPublishedMessages(SubjectSessionCompleted)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
}

func TestEventPublisher_Publish_SwallowsMQErrors(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	mq.PublishFunc = func(topic string, data []byte) error {
		return domain.ErrPileNotFound
	}
	p := NewEventPublisher(mq, nil)

	p.PublishPileFault("F1")
}

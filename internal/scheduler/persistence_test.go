package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/mocks"
)

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestAsyncPersistor_Enqueue_WritesThroughToRepo(t *testing.T) {
	// Arrange
	repo := mocks.NewMockPersistenceCollaborator()
	p := NewAsyncPersistor(repo, nil, nil)
	defer p.Close()

	events := []completionEvent{{
		record:   &domain.ChargingRecord{ID: "r1"},
		counters: domain.PileCounters{PileNumber: "F1", Sessions: 1},
		pile:     "F1",
		status:   domain.PileAvailable,
	}}

	// Act
	p.Enqueue(events)

	// Assert
	waitUntil(t, func() bool { return len(repo.SavedRecords) == 1 })
	if len(repo.UpdatedCounters) != 1 {
		t.Errorf("expected 1 counters update, got %d", len(repo.UpdatedCounters))
	}
	if len(repo.UpdatedStatuses) != 1 {
		t.Errorf("expected 1 status update, got %d", len(repo.UpdatedStatuses))
	}
}

func TestAsyncPersistor_OnFailure_RepublishesToOutbox(t *testing.T) {
	// Arrange
	repo := mocks.NewMockPersistenceCollaborator()
	repo.SaveRecordFunc = func(ctx context.Context, record *domain.ChargingRecord) error {
		return errors.New("connection refused")
	}
	outbox := mocks.NewMockMessageQueue()
	p := NewAsyncPersistor(repo, outbox, nil)
	defer p.Close()

	// Act
	p.Enqueue([]completionEvent{{
		record: &domain.ChargingRecord{ID: "r1"},
		pile:   "F1",
		status: domain.PileAvailable,
	}})

	// Assert
	waitUntil(t, func() bool { return len(outbox.GetPublishedMessages("persistence.retry")) >= 1 })
}

func TestAsyncPersistor_Close_DrainsPendingBatches(t *testing.T) {
	repo := mocks.NewMockPersistenceCollaborator()
	p := NewAsyncPersistor(repo, nil, nil)

	p.Enqueue([]completionEvent{{record: &domain.ChargingRecord{ID: "a"}}})
	p.Enqueue([]completionEvent{{record: &domain.ChargingRecord{ID: "b"}}})

	p.Close()

	if len(repo.SavedRecords) != 2 {
		t.Errorf("expected both batches drained before Close returns, got %d", len(repo.SavedRecords))
	}
}

package mocks

import (
	"context"
	"sync"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// MockPersistenceCollaborator is a mock implementation of the
// ports.PersistenceCollaborator interface.
type MockPersistenceCollaborator struct {
	mu sync.Mutex

	SavedRecords    []*domain.ChargingRecord
	UpdatedCounters []domain.PileCounters
	UpdatedStatuses []string

	SaveRecordFunc          func(ctx context.Context, record *domain.ChargingRecord) error
	UpdatePileCountersFunc  func(ctx context.Context, counters domain.PileCounters) error
	UpdatePileStatusFunc    func(ctx context.Context, pileNumber string, status domain.PileStatus) error
}

func NewMockPersistenceCollaborator() *MockPersistenceCollaborator {
	return &MockPersistenceCollaborator{}
}

func (m *MockPersistenceCollaborator) SaveRecord(ctx context.Context, record *domain.ChargingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveRecordFunc != nil {
		return m.SaveRecordFunc(ctx, record)
	}
	m.SavedRecords = append(m.SavedRecords, record)
	return nil
}

func (m *MockPersistenceCollaborator) UpdatePileCounters(ctx context.Context, counters domain.PileCounters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdatePileCountersFunc != nil {
		return m.UpdatePileCountersFunc(ctx, counters)
	}
	m.UpdatedCounters = append(m.UpdatedCounters, counters)
	return nil
}

func (m *MockPersistenceCollaborator) UpdatePileStatus(ctx context.Context, pileNumber string, status domain.PileStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdatePileStatusFunc != nil {
		return m.UpdatePileStatusFunc(ctx, pileNumber, status)
	}
	m.UpdatedStatuses = append(m.UpdatedStatuses, pileNumber+":"+string(status))
	return nil
}

package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/voltgrid/evse-scheduler/internal/billing"
	"github.com/voltgrid/evse-scheduler/internal/mocks"
)

func TestCachedSnapshotProvider_Miss_PopulatesCache(t *testing.T) {
	// Arrange
	calc := billing.NewCalculator(billing.DefaultPricingConfig(), nil)
	f := NewFacade(DefaultConfig(), calc, nil, nil, nil)
	if err := f.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Stop()

	cache := mocks.NewMockCache()
	p := NewCachedSnapshotProvider(f, cache, time.Minute, nil)

	// Act
	data, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON snapshot: %v", err)
	}
	if len(decoded.Piles) != 5 {
		t.Errorf("expected 5 piles in snapshot, got %d", len(decoded.Piles))
	}

	cached, err := cache.Get(context.Background(), snapshotCacheKey)
	if err != nil {
		t.Fatalf("unexpected error reading back cache: %v", err)
	}
	if cached == "" {
		t.Error("expected the cache to be populated after a miss")
	}
}

func TestCachedSnapshotProvider_Hit_ReturnsCachedPayloadWithoutRecomputing(t *testing.T) {
	calc := billing.NewCalculator(billing.DefaultPricingConfig(), nil)
	f := NewFacade(DefaultConfig(), calc, nil, nil, nil)

	cache := mocks.NewMockCache()
	cache.Set(context.Background(), snapshotCacheKey, `{"stale":"payload"}`, time.Minute)

	p := NewCachedSnapshotProvider(f, cache, time.Minute, nil)

	data, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"stale":"payload"}` {
		t.Errorf("expected cached payload returned verbatim, got %s", data)
	}
}

func TestCachedSnapshotProvider_NilCache_BypassesCaching(t *testing.T) {
	calc := billing.NewCalculator(billing.DefaultPricingConfig(), nil)
	f := NewFacade(DefaultConfig(), calc, nil, nil, nil)
	if err := f.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Stop()

	p := NewCachedSnapshotProvider(f, nil, time.Minute, nil)

	data, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected a non-empty snapshot even without a cache")
	}
}

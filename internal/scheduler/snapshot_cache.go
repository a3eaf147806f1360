package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
	"github.com/voltgrid/evse-scheduler/internal/ports"
)

// snapshotCacheKey is the single cache-aside entry this repo keeps: the
// control surface exposes no query operations cheap enough to warrant
// more than one.
const snapshotCacheKey = "scheduler:snapshot"

// CachedSnapshotProvider fronts Facade.Snapshot with a short-TTL
// cache-aside read, so a burst of external pollers (a dashboard,
// a health probe) doesn't all pay the model's read lock at once.
// A cache miss or error always falls through to a live snapshot; the
// cache only ever shortens staleness, never blocks correctness.
type CachedSnapshotProvider struct {
	facade *Facade
	cache  ports.Cache
	ttl    time.Duration
	log    *zap.Logger
}

// NewCachedSnapshotProvider wraps facade with cache. A nil cache makes
// every call a direct Facade.Snapshot (no caching).
func NewCachedSnapshotProvider(facade *Facade, cache ports.Cache, ttl time.Duration, log *zap.Logger) *CachedSnapshotProvider {
	return &CachedSnapshotProvider{facade: facade, cache: cache, ttl: ttl, log: log}
}

// Snapshot returns the current model snapshot, JSON-encoded, serving a
// cached copy when one is fresh enough.
func (p *CachedSnapshotProvider) Snapshot(ctx context.Context) ([]byte, error) {
	if p.cache == nil {
		return json.Marshal(p.facade.Snapshot())
	}

	if cached, err := p.cache.Get(ctx, snapshotCacheKey); err == nil && cached != "" {
		telemetry.RecordCacheAccess(true)
		return []byte(cached), nil
	}
	telemetry.RecordCacheAccess(false)

	data, err := json.Marshal(p.facade.Snapshot())
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, snapshotCacheKey, string(data), p.ttl); err != nil && p.log != nil {
		p.log.Warn("failed to populate snapshot cache", zap.Error(err))
	}
	return data, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/ports"
)

// PersistenceRepository implements ports.PersistenceCollaborator
// against Postgres via GORM. It is the only adapter in this module
// that writes scheduling state to durable storage; the scheduling core
// never reads back through it.
type PersistenceRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewPersistenceRepository builds a PersistenceRepository over db.
func NewPersistenceRepository(db *gorm.DB, log *zap.Logger) ports.PersistenceCollaborator {
	return &PersistenceRepository{db: db, log: log}
}

// SaveRecord upserts by primary key so a record saved twice (e.g. after
// a retried outbox delivery) never duplicates a row. The Calculator
// assigns record.ID before this is ever called; the fallback here only
// guards callers that construct a record directly (tests, backfills).
func (r *PersistenceRepository) SaveRecord(ctx context.Context, record *domain.ChargingRecord) error {
	if record.ID == "" {
		record.ID = fmt.Sprintf("%s-%s", record.PileNumber, record.StartTime.UTC().Format(time.RFC3339Nano))
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("save charging record: %w", err)
	}
	return nil
}

// UpdatePileCounters folds counters into the pile's running totals.
// The increments are applied in SQL, so concurrent calls add up rather
// than overwrite each other.
func (r *PersistenceRepository) UpdatePileCounters(ctx context.Context, counters domain.PileCounters) error {
	err := r.db.WithContext(ctx).Model(&domain.ChargingPile{}).
		Where("number = ?", counters.PileNumber).
		Updates(map[string]interface{}{
			"total_sessions":       gorm.Expr("total_sessions + ?", counters.Sessions),
			"total_charge_hours":   gorm.Expr("total_charge_hours + ?", counters.ChargeHours),
			"total_kwh":            gorm.Expr("total_kwh + ?", counters.KWh),
			"total_electricity_fee": gorm.Expr("total_electricity_fee + ?", counters.ElectricityFee),
			"total_service_fee":    gorm.Expr("total_service_fee + ?", counters.ServiceFee),
			"updated_at":           time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("update pile counters for %s: %w", counters.PileNumber, err)
	}
	return nil
}

// UpdatePileStatus records a pile's operational state transition.
func (r *PersistenceRepository) UpdatePileStatus(ctx context.Context, pileNumber string, status domain.PileStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == domain.PileCharging {
		now := time.Now().UTC()
		updates["started_at"] = &now
	}

	err := r.db.WithContext(ctx).Model(&domain.ChargingPile{}).
		Where("number = ?", pileNumber).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update pile status for %s: %w", pileNumber, err)
	}
	return nil
}

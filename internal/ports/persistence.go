package ports

import (
	"context"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// PersistenceCollaborator is the external collaborator the scheduling
// core reports finished work to. It is deliberately narrow: three
// write-only operations with no read path back
// into the scheduler (spec §6 — the collaborator never feeds state back
// into the in-memory model). Implementations must tolerate being called
// concurrently from the tick engine and the control surface.
//
// Errors are always logged and swallowed by the caller; a
// PersistenceCollaborator must never be relied upon to keep the
// in-memory Queue Model correct.
type PersistenceCollaborator interface {
	// SaveRecord persists a completed charging session's bill. Saving
	// the same record ID twice must be a no-op, not a duplicate row.
	SaveRecord(ctx context.Context, record *domain.ChargingRecord) error

	// UpdatePileCounters folds a session's cumulative contribution into
	// a pile's running totals. counters is a per-session delta, so
	// applying the same delta twice counts it twice.
	UpdatePileCounters(ctx context.Context, counters domain.PileCounters) error

	// UpdatePileStatus records a pile's operational state transition
	// (fault, repair, shutdown).
	UpdatePileStatus(ctx context.Context, pileNumber string, status domain.PileStatus) error
}

package scheduler

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

func newTestDispatcher(model *QueueModel, clock *SimulatedClock) *Dispatcher {
	return NewDispatcher(model, clock, DefaultConfig(), zap.NewNop())
}

// TestDispatcher_SelectBestPile_MinCompletionTime covers spec scenario
// 3: F1 is charging a 30kWh request begun 30 simulated minutes ago (15
// kWh remaining), F2 is idle. A new {Fast, 30kWh} request's T_comp is
// lower on F2 (1.0h) than on F1 (15/30 + 30/30 = 1.5h), so F2 wins.
func TestDispatcher_SelectBestPile_MinCompletionTime(t *testing.T) {
	// Arrange
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	model.addPile(newTestPile("F2", domain.ModeFast))
	clock := NewSimulatedClock(30.0)
	now := clock.Current()

	model.piles["F1"].pile.Status = domain.PileCharging
	model.piles["F1"].current = &domain.ChargingRequest{ID: "r1", Mode: domain.ModeFast, AmountKWh: 30}
	model.piles["F1"].chargingStart = now.Add(-30 * time.Minute)

	d := newTestDispatcher(model, clock)
	req := &domain.ChargingRequest{ID: "new", Mode: domain.ModeFast, AmountKWh: 30}

	// Act
	best := d.selectBestPile(req, nil)

	// Assert
	if best != "F2" {
		t.Errorf("expected F2 to win on minimum completion time, got %q", best)
	}
}

func TestDispatcher_SelectBestPile_TieBrokenByAscendingPileNumber(t *testing.T) {
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	model.addPile(newTestPile("F2", domain.ModeFast))
	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)

	req := &domain.ChargingRequest{ID: "new", Mode: domain.ModeFast, AmountKWh: 30}
	best := d.selectBestPile(req, nil)

	if best != "F1" {
		t.Errorf("expected tie broken toward F1, got %q", best)
	}
}

func TestDispatcher_SelectBestPile_SkipsIneligibleAndWrongMode(t *testing.T) {
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	model.piles["F1"].pile.Status = domain.PileFault
	model.addPile(newTestPile("T1", domain.ModeSlow))
	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)

	req := &domain.ChargingRequest{ID: "new", Mode: domain.ModeFast, AmountKWh: 10}
	if best := d.selectBestPile(req, nil); best != "" {
		t.Errorf("expected no eligible pile, got %q", best)
	}
}

func TestDispatcher_Run_AssignsInFIFOOrderUntilNoneEligible(t *testing.T) {
	// Arrange
	model := NewQueueModel(6, 1)
	model.addPile(newTestPile("F1", domain.ModeFast))
	clock := NewSimulatedClock(30.0)
	cfg := DefaultConfig()
	cfg.PileQueueCapacity = 1
	d := NewDispatcher(model, clock, cfg, zap.NewNop())
	d.startCalling()

	r1 := &domain.ChargingRequest{ID: "r1", Mode: domain.ModeFast, AmountKWh: 10}
	r2 := &domain.ChargingRequest{ID: "r2", Mode: domain.ModeFast, AmountKWh: 10}
	model.admitLocked(r1)
	model.admitLocked(r2)

	// Act
	d.Run()

	// Assert: F1's single queue slot takes r1, r2 stays waiting (no
	// eligible pile for it — F1's queue is full).
	if len(model.piles["F1"].queue) != 1 || model.piles["F1"].queue[0].ID != "r1" {
		t.Errorf("expected r1 assigned to F1's queue, got %+v", model.piles["F1"].queue)
	}
	if len(model.waitingArea) != 1 || model.waitingArea[0].ID != "r2" {
		t.Errorf("expected r2 to remain waiting, got %+v", model.waitingArea)
	}
}

func TestDispatcher_Run_NoopWhenNotCalling(t *testing.T) {
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)

	model.admitLocked(&domain.ChargingRequest{ID: "r1", Mode: domain.ModeFast, AmountKWh: 10})
	d.Run()

	if len(model.waitingArea) != 1 {
		t.Error("expected Run to be a no-op while dispatch is disabled")
	}
}

// TestDispatcher_HandleFault_PreservesQueueOrder covers spec scenario
// 5: F1 is charging r_a (15kWh remaining of a 30kWh request) with r_b
// (30kWh) queued behind it; F2 is idle. Faulting F1 must move both to
// F2, r_a first (its queue_number F1 precedes r_b's F2).
func TestDispatcher_HandleFault_PreservesQueueOrder(t *testing.T) {
	// Arrange
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	model.addPile(newTestPile("F2", domain.ModeFast))
	clock := NewSimulatedClock(30.0)
	now := clock.Current()

	ra := &domain.ChargingRequest{ID: "ra", QueueNumber: "F1", Mode: domain.ModeFast, AmountKWh: 30, Status: domain.StatusCharging}
	rb := &domain.ChargingRequest{ID: "rb", QueueNumber: "F2", Mode: domain.ModeFast, AmountKWh: 30, Status: domain.StatusWaiting}

	model.piles["F1"].pile.Status = domain.PileCharging
	model.piles["F1"].current = ra
	model.piles["F1"].chargingStart = now.Add(-30 * time.Minute)
	model.piles["F1"].queue = []*domain.ChargingRequest{rb}

	d := newTestDispatcher(model, clock)
	d.startCalling()

	// Act
	if err := d.HandleFault("F1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if model.piles["F1"].pile.Status != domain.PileFault {
		t.Errorf("expected F1 to be Fault, got %s", model.piles["F1"].pile.Status)
	}
	if model.piles["F1"].current != nil {
		t.Error("expected F1's current to be cleared")
	}
	if len(model.piles["F1"].queue) != 0 {
		t.Error("expected F1's queue to be emptied")
	}

	f2 := model.piles["F2"]
	if f2.current == nil || f2.current.ID != "ra" {
		t.Errorf("expected F2's current to be ra, got %+v", f2.current)
	}
	if len(f2.queue) != 1 || f2.queue[0].ID != "rb" {
		t.Errorf("expected F2's queue to be [rb], got %+v", f2.queue)
	}
}

func TestDispatcher_HandleFault_FallsBackToWaitingAreaWhenNoPileEligible(t *testing.T) {
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	clock := NewSimulatedClock(30.0)

	displaced := &domain.ChargingRequest{ID: "d", Mode: domain.ModeFast, AmountKWh: 10, Status: domain.StatusCharging}
	model.piles["F1"].pile.Status = domain.PileCharging
	model.piles["F1"].current = displaced

	d := newTestDispatcher(model, clock)
	d.startCalling()

	if err := d.HandleFault("F1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(model.waitingArea) != 1 || model.waitingArea[0].ID != "d" {
		t.Errorf("expected displaced request to fall back to waiting area, got %+v", model.waitingArea)
	}
}

func TestDispatcher_HandleFault_UnknownPile(t *testing.T) {
	model := NewQueueModel(6, 2)
	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)

	if err := d.HandleFault("ghost"); err != domain.ErrPileNotFound {
		t.Errorf("expected ErrPileNotFound, got %v", err)
	}
}

// TestDispatcher_HandleRecovery_ReshufflesBySameModeQueueNumber covers
// the global reshuffle: queued requests across same-mode piles are
// collected, sorted by queue_number, and redistributed including the
// newly repaired pile.
func TestDispatcher_HandleRecovery_ReshufflesBySameModeQueueNumber(t *testing.T) {
	// Arrange
	model := NewQueueModel(6, 2)
	model.addPile(newTestPile("F1", domain.ModeFast))
	model.addPile(newTestPile("F2", domain.ModeFast))
	model.piles["F1"].pile.Status = domain.PileFault

	later := &domain.ChargingRequest{ID: "later", QueueNumber: "F10", Mode: domain.ModeFast, AmountKWh: 10}
	earlier := &domain.ChargingRequest{ID: "earlier", QueueNumber: "F2", Mode: domain.ModeFast, AmountKWh: 10}
	model.piles["F2"].queue = []*domain.ChargingRequest{later, earlier}

	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)
	d.startCalling()

	// Act
	if err := d.HandleRecovery("F1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert: F1 is Available again and, being the ascending tie-break
	// winner among idle same-mode piles, receives the earlier-numbered
	// request first.
	if model.piles["F1"].pile.Status != domain.PileAvailable {
		t.Errorf("expected F1 back to Available, got %s", model.piles["F1"].pile.Status)
	}
	if model.piles["F1"].current == nil && len(model.piles["F1"].queue) == 0 {
		t.Error("expected F1 to receive at least one reshuffled request")
	}

	var allIDs []string
	for _, s := range model.piles {
		if s.current != nil {
			allIDs = append(allIDs, s.current.ID)
		}
		for _, r := range s.queue {
			allIDs = append(allIDs, r.ID)
		}
	}
	if len(allIDs) != 2 {
		t.Fatalf("expected both requests reshuffled somewhere, got %v", allIDs)
	}
}

func TestDispatcher_HandleRecovery_UnknownPile(t *testing.T) {
	model := NewQueueModel(6, 2)
	clock := NewSimulatedClock(30.0)
	d := newTestDispatcher(model, clock)

	if err := d.HandleRecovery("ghost"); err != domain.ErrPileNotFound {
		t.Errorf("expected ErrPileNotFound, got %v", err)
	}
}

func TestQueueNumberOrdinal_NumericNotLexicographic(t *testing.T) {
	if queueNumberOrdinal("F2") >= queueNumberOrdinal("F10") {
		t.Errorf("expected F2 < F10 numerically, got F2=%d F10=%d", queueNumberOrdinal("F2"), queueNumberOrdinal("F10"))
	}
	if queueNumberOrdinal("T7") != 7 {
		t.Errorf("expected T7 -> 7, got %d", queueNumberOrdinal("T7"))
	}
	if queueNumberOrdinal("garbage") != 0 {
		t.Errorf("expected unparsable input to default to 0, got %d", queueNumberOrdinal("garbage"))
	}
}

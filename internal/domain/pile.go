package domain

import "time"

// PileStatus is the operational state of a ChargingPile.
type PileStatus string

const (
	PileAvailable PileStatus = "Available"
	PileCharging  PileStatus = "Charging"
	PileFault     PileStatus = "Fault"
	PileShutdown  PileStatus = "Shutdown"
)

// Eligible reports whether a pile in this status may receive a new
// assignment (spec §4.5: status must be Available or Charging, and
// Fault/Shutdown piles are never eligible).
func (s PileStatus) Eligible() bool {
	return s == PileAvailable || s == PileCharging
}

// ChargingPile is a physical charger with a fixed mode and monotonically
// increasing cumulative statistics. PileCounters are only ever incremented,
// at session completion, by exactly the amounts in the emitted
// ChargingRecord.
type ChargingPile struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	Number    string       `json:"number" gorm:"uniqueIndex"`
	Mode      ChargingMode `json:"mode"`
	Status    PileStatus   `json:"status"`
	StartedAt *time.Time   `json:"started_at,omitempty"`

	TotalSessions      int       `json:"total_sessions"`
	TotalChargeHours    float64   `json:"total_charge_hours"`
	TotalKWh            float64   `json:"total_kwh"`
	TotalElectricityFee float64   `json:"total_electricity_fee"`
	TotalServiceFee     float64   `json:"total_service_fee"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PowerKWhPerHour returns the charging rate for the pile's mode given the
// configured fast/slow power ratings.
func (p *ChargingPile) PowerKWhPerHour(fastPower, slowPower float64) float64 {
	if p.Mode == ModeFast {
		return fastPower
	}
	return slowPower
}

// PileCounters is the set of cumulative fields updated atomically at
// session completion and handed to the persistence collaborator via
// piles.update_counters (spec §6).
type PileCounters struct {
	PileNumber       string
	Sessions         int
	ChargeHours      float64
	KWh              float64
	ElectricityFee   float64
	ServiceFee       float64
}

// Add folds a completed session's contribution into the pile's running totals.
func (p *ChargingPile) Add(c PileCounters) {
	p.TotalSessions += c.Sessions
	p.TotalChargeHours += c.ChargeHours
	p.TotalKWh += c.KWh
	p.TotalElectricityFee += c.ElectricityFee
	p.TotalServiceFee += c.ServiceFee
}

package domain

import "time"

// ChargingRecord is an immutable post-session receipt. Exactly one is
// created per completed session; it is never mutated after construction.
type ChargingRecord struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index"`
	PileNumber     string    `json:"pile_number"`
	Mode           ChargingMode `json:"mode"`
	AmountKWh      float64   `json:"amount_kwh"`
	ChargeHours    float64   `json:"charge_hours"`
	ElectricityFee float64   `json:"electricity_fee"`
	ServiceFee     float64   `json:"service_fee"`
	TotalFee       float64   `json:"total_fee"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// Counters projects the record onto the pile cumulative-statistics shape.
func (r *ChargingRecord) Counters() PileCounters {
	return PileCounters{
		PileNumber:     r.PileNumber,
		Sessions:       1,
		ChargeHours:    r.ChargeHours,
		KWh:            r.AmountKWh,
		ElectricityFee: r.ElectricityFee,
		ServiceFee:     r.ServiceFee,
	}
}

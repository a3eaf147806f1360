package domain

import "time"

// ChargingMode identifies a vehicle's requested charging speed.
type ChargingMode string

const (
	ModeFast ChargingMode = "Fast"
	ModeSlow ChargingMode = "Slow"
)

func (m ChargingMode) Valid() bool {
	return m == ModeFast || m == ModeSlow
}

// RequestStatus tracks a ChargingRequest through its lifecycle.
//
//	Waiting -> Charging -> Completed
//	Waiting -> Cancelled
//	Charging -> Cancelled
type RequestStatus string

const (
	StatusWaiting   RequestStatus = "Waiting"
	StatusCharging  RequestStatus = "Charging"
	StatusCompleted RequestStatus = "Completed"
	StatusCancelled RequestStatus = "Cancelled"
)

// ChargingRequest is a user's intent to charge a vehicle for a given
// amount of energy. It lives in exactly one of the waiting area, a pile's
// queue, or a pile's current_charging slot for as long as it is Waiting
// or Charging.
type ChargingRequest struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	UserID      string            `json:"user_id" gorm:"index"`
	Mode        ChargingMode      `json:"mode"`
	AmountKWh   float64           `json:"amount_kwh"`
	QueueNumber string            `json:"queue_number"`
	Status      RequestStatus     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CanCancel reports whether the request is in a state that cancel() may act on.
func (r *ChargingRequest) CanCancel() bool {
	return r.Status == StatusWaiting || r.Status == StatusCharging
}

// CanModify reports whether amount/mode may still be changed (§4.7:
// only Waiting requests, or requests parked in a pile queue but not yet
// current_charging, are modifiable).
func (r *ChargingRequest) CanModify() bool {
	return r.Status == StatusWaiting
}

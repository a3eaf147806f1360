package billing

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

// PricingConfig holds the tariff and service-fee configuration used by
// the Calculator. ServiceRatePerKWh is flat across all time slots.
type PricingConfig struct {
	Schedule          Schedule
	ServiceRatePerKWh float64
}

// DefaultPricingConfig returns the spec §4.1 tariff (Peak 1.0, Flat 0.7,
// Valley 0.4 ¥/kWh) with a flat 0.8 ¥/kWh service fee.
func DefaultPricingConfig() *PricingConfig {
	return &PricingConfig{
		Schedule:          DefaultSchedule(),
		ServiceRatePerKWh: 0.8,
	}
}

// Calculator turns a completed charging session into a ChargingRecord.
// It holds no mutable state: two calls with identical arguments always
// produce identical fees.
type Calculator struct {
	pricing *PricingConfig
	log     *zap.Logger
}

// NewCalculator builds a Calculator. A nil pricing config falls back to
// DefaultPricingConfig.
func NewCalculator(pricing *PricingConfig, log *zap.Logger) *Calculator {
	if pricing == nil {
		pricing = DefaultPricingConfig()
	}
	return &Calculator{pricing: pricing, log: log}
}

// Calculate produces the ChargingRecord for a session that delivered
// amountKWh between start and end. The electricity fee is apportioned
// minute-by-minute across whatever tariff windows the session spans;
// the service fee is a flat rate over the whole amount.
//
// start and end must satisfy end.After(start); callers are expected to
// have already validated this (see domain.ErrInvalidInterval).
func (c *Calculator) Calculate(userID, pileNumber string, mode domain.ChargingMode, amountKWh float64, start, end time.Time) *domain.ChargingRecord {
	totalMinutes := end.Sub(start).Minutes()
	perMinuteAmount := amountKWh / totalMinutes

	var electricityFee float64
	for cursor := start; cursor.Before(end); cursor = cursor.Add(time.Minute) {
		_, rate := c.pricing.Schedule.Classify(cursor)
		electricityFee += perMinuteAmount * rate
	}

	serviceFee := amountKWh * c.pricing.ServiceRatePerKWh

	record := &domain.ChargingRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		PileNumber:     pileNumber,
		Mode:           mode,
		AmountKWh:      amountKWh,
		ChargeHours:    totalMinutes / 60.0,
		ElectricityFee: electricityFee,
		ServiceFee:     serviceFee,
		TotalFee:       electricityFee + serviceFee,
		StartTime:      start,
		EndTime:        end,
		CreatedAt:      end,
	}

	if c.log != nil {
		c.log.Info("calculated charging fee",
			zap.String("pile_number", pileNumber),
			zap.String("user_id", userID),
			zap.Float64("amount_kwh", amountKWh),
			zap.Float64("electricity_fee", electricityFee),
			zap.Float64("service_fee", serviceFee),
			zap.Float64("total_fee", record.TotalFee),
		)
	}

	return record
}

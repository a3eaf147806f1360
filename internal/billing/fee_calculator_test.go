package billing

import (
	"math"
	"testing"
	"time"

	"github.com/voltgrid/evse-scheduler/internal/domain"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// TestCalculate_PeakHour covers spec scenario 1: a full hour inside the
// Peak window produces electricity_fee=30.0, service_fee=24.0, total=54.0.
func TestCalculate_PeakHour(t *testing.T) {
	// Arrange
	calc := NewCalculator(DefaultPricingConfig(), nil)
	start := time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Act
	record := calc.Calculate("user-1", "F1", domain.ModeFast, 30.0, start, end)

	// Assert
	if !approxEqual(record.ElectricityFee, 30.0, 0.01) {
		t.Errorf("expected electricity_fee≈30.0, got %f", record.ElectricityFee)
	}
	if !approxEqual(record.ServiceFee, 24.0, 0.01) {
		t.Errorf("expected service_fee=24.0, got %f", record.ServiceFee)
	}
	if !approxEqual(record.TotalFee, 54.0, 0.01) {
		t.Errorf("expected total=54.0, got %f", record.TotalFee)
	}
	if record.ID == "" {
		t.Error("expected a generated record ID")
	}
}

// TestCalculate_StraddlingPeakToFlat covers spec scenario 2: 14:30-15:30
// splits evenly between Peak (1.0) and Flat (0.7).
func TestCalculate_StraddlingPeakToFlat(t *testing.T) {
	calc := NewCalculator(DefaultPricingConfig(), nil)
	start := time.Date(2026, 7, 30, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	record := calc.Calculate("user-1", "F1", domain.ModeFast, 30.0, start, end)

	if !approxEqual(record.ElectricityFee, 25.5, 0.01) {
		t.Errorf("expected electricity_fee≈25.5, got %f", record.ElectricityFee)
	}
	if !approxEqual(record.TotalFee, 49.5, 0.01) {
		t.Errorf("expected total≈49.5, got %f", record.TotalFee)
	}
}

func TestCalculate_ChargeHours(t *testing.T) {
	calc := NewCalculator(DefaultPricingConfig(), nil)
	start := time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	record := calc.Calculate("user-1", "T1", domain.ModeSlow, 10.5, start, end)

	if !approxEqual(record.ChargeHours, 1.5, 0.001) {
		t.Errorf("expected charge_hours=1.5, got %f", record.ChargeHours)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewCalculator(DefaultPricingConfig(), nil)
	start := time.Date(2026, 7, 30, 9, 45, 0, 0, time.UTC)
	end := start.Add(37 * time.Minute)

	r1 := calc.Calculate("user-1", "F1", domain.ModeFast, 18.2, start, end)
	r2 := calc.Calculate("user-1", "F1", domain.ModeFast, 18.2, start, end)

	if r1.TotalFee != r2.TotalFee {
		t.Errorf("expected identical fees for identical inputs, got %f and %f", r1.TotalFee, r2.TotalFee)
	}
}

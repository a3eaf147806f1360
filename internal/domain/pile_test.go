package domain

import "testing"

func TestPileStatus_Eligible(t *testing.T) {
	cases := map[PileStatus]bool{
		PileAvailable: true,
		PileCharging:  true,
		PileFault:     false,
		PileShutdown:  false,
	}
	for status, want := range cases {
		if got := status.Eligible(); got != want {
			t.Errorf("%s.Eligible() = %v, want %v", status, got, want)
		}
	}
}

func TestChargingPile_PowerKWhPerHour(t *testing.T) {
	fast := &ChargingPile{Mode: ModeFast}
	slow := &ChargingPile{Mode: ModeSlow}

	if got := fast.PowerKWhPerHour(30.0, 7.0); got != 30.0 {
		t.Errorf("fast pile power = %f, want 30.0", got)
	}
	if got := slow.PowerKWhPerHour(30.0, 7.0); got != 7.0 {
		t.Errorf("slow pile power = %f, want 7.0", got)
	}
}

func TestChargingPile_Add_IsMonotonic(t *testing.T) {
	// Arrange
	p := &ChargingPile{}
	c := PileCounters{Sessions: 1, ChargeHours: 1.5, KWh: 30, ElectricityFee: 20, ServiceFee: 24}

	// Act
	p.Add(c)
	p.Add(c)

	// Assert
	if p.TotalSessions != 2 {
		t.Errorf("expected 2 sessions, got %d", p.TotalSessions)
	}
	if p.TotalKWh != 60 {
		t.Errorf("expected 60 kWh, got %f", p.TotalKWh)
	}
}

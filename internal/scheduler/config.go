package scheduler

import "github.com/voltgrid/evse-scheduler/internal/domain"

// InitialPile describes one pile to create on start() if the model has
// none yet.
type InitialPile struct {
	Number string
	Mode   domain.ChargingMode
}

// Config holds the tunable numeric parameters of the scheduling core.
// It is a plain runtime struct, constructed by cmd/server from the
// viper-bound pkg/config.SchedulerConfig — this package has no
// knowledge of configuration file formats.
type Config struct {
	Acceleration        float64
	TickInterval        int // milliseconds
	WaitingAreaCapacity  int
	PileQueueCapacity    int
	FastPowerKWhPerH     float64
	SlowPowerKWhPerH     float64
	InitialPiles         []InitialPile
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		Acceleration:        30.0,
		TickInterval:        100,
		WaitingAreaCapacity: 6,
		PileQueueCapacity:   2,
		FastPowerKWhPerH:    30.0,
		SlowPowerKWhPerH:    7.0,
		InitialPiles: []InitialPile{
			{Number: "F1", Mode: domain.ModeFast},
			{Number: "F2", Mode: domain.ModeFast},
			{Number: "T1", Mode: domain.ModeSlow},
			{Number: "T2", Mode: domain.ModeSlow},
			{Number: "T3", Mode: domain.ModeSlow},
		},
	}
}

// PowerFor returns the charging rate, in kWh/h, for pile p.
func (c Config) PowerFor(p *domain.ChargingPile) float64 {
	return p.PowerKWhPerHour(c.FastPowerKWhPerH, c.SlowPowerKWhPerH)
}

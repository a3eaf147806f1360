// Package billing implements the tariff classification and fee
// calculation rules of the charging station (spec §4.1).
package billing

import "time"

// TimeSlot classifies a simulated instant into one of the station's
// time-of-day electricity pricing tiers.
type TimeSlot string

const (
	SlotPeak   TimeSlot = "Peak"
	SlotFlat   TimeSlot = "Flat"
	SlotValley TimeSlot = "Valley"
)

// Rate is a single (start-hour, start-minute)-to-(end) window of the
// tariff schedule, expressed in minutes since local midnight, half-open
// on the high end ([StartMin, EndMin)). A schedule may list several
// windows for the same slot (the default Flat tier has three).
type Rate struct {
	Slot     TimeSlot
	StartMin int // minutes since local midnight, inclusive
	EndMin   int // minutes since local midnight, exclusive
}

// Schedule is an ordered list of Rate windows covering the full day.
// The default schedule implements spec §4.1's table.
type Schedule struct {
	Windows []Rate
	// Electricity rate per slot, ¥/kWh.
	PeakRate   float64
	FlatRate   float64
	ValleyRate float64
}

// DefaultSchedule returns the spec §4.1 tariff: Peak 10:00-14:59 &
// 18:00-20:59 at 1.0¥/kWh, Flat 7:00-9:59, 15:00-17:59, 21:00-22:59 at
// 0.7¥/kWh, Valley 23:00-06:59 at 0.4¥/kWh.
func DefaultSchedule() Schedule {
	return Schedule{
		PeakRate:   1.0,
		FlatRate:   0.7,
		ValleyRate: 0.4,
		Windows: []Rate{
			{Slot: SlotFlat, StartMin: 7 * 60, EndMin: 10 * 60},
			{Slot: SlotPeak, StartMin: 10 * 60, EndMin: 15 * 60},
			{Slot: SlotFlat, StartMin: 15 * 60, EndMin: 18 * 60},
			{Slot: SlotPeak, StartMin: 18 * 60, EndMin: 21 * 60},
			{Slot: SlotFlat, StartMin: 21 * 60, EndMin: 23 * 60},
			{Slot: SlotValley, StartMin: 23 * 60, EndMin: 24 * 60},
			{Slot: SlotValley, StartMin: 0, EndMin: 7 * 60},
		},
	}
}

// Classify returns the TimeSlot and ¥/kWh rate in effect at the start of
// the minute containing t, in t's own location.
func (s Schedule) Classify(t time.Time) (TimeSlot, float64) {
	minuteOfDay := t.Hour()*60 + t.Minute()
	for _, w := range s.Windows {
		if minuteOfDay >= w.StartMin && minuteOfDay < w.EndMin {
			return w.Slot, s.rateFor(w.Slot)
		}
	}
	// Unreachable for a well-formed 24h schedule; Valley is the
	// natural default for any gap.
	return SlotValley, s.ValleyRate
}

func (s Schedule) rateFor(slot TimeSlot) float64 {
	switch slot {
	case SlotPeak:
		return s.PeakRate
	case SlotFlat:
		return s.FlatRate
	default:
		return s.ValleyRate
	}
}

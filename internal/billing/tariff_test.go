package billing

import (
	"testing"
	"time"
)

func TestClassify_PeakHour(t *testing.T) {
	// Arrange
	s := DefaultSchedule()
	instant := time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC)

	// Act
	slot, rate := s.Classify(instant)

	// Assert
	if slot != SlotPeak {
		t.Errorf("expected Peak, got %s", slot)
	}
	if rate != 1.0 {
		t.Errorf("expected rate 1.0, got %f", rate)
	}
}

func TestClassify_FlatHour(t *testing.T) {
	s := DefaultSchedule()
	instant := time.Date(2026, 7, 30, 8, 30, 0, 0, time.UTC)

	slot, rate := s.Classify(instant)

	if slot != SlotFlat {
		t.Errorf("expected Flat, got %s", slot)
	}
	if rate != 0.7 {
		t.Errorf("expected rate 0.7, got %f", rate)
	}
}

func TestClassify_ValleyWrapsMidnight(t *testing.T) {
	s := DefaultSchedule()

	for _, hour := range []int{23, 0, 3, 6} {
		instant := time.Date(2026, 7, 30, hour, 0, 0, 0, time.UTC)
		slot, rate := s.Classify(instant)
		if slot != SlotValley {
			t.Errorf("hour %d: expected Valley, got %s", hour, slot)
		}
		if rate != 0.4 {
			t.Errorf("hour %d: expected rate 0.4, got %f", hour, rate)
		}
	}
}

func TestClassify_BoundaryMinuteBelongsToNewSlot(t *testing.T) {
	s := DefaultSchedule()

	slot, _ := s.Classify(time.Date(2026, 7, 30, 9, 59, 0, 0, time.UTC))
	if slot != SlotFlat {
		t.Errorf("9:59 expected Flat, got %s", slot)
	}

	slot, _ = s.Classify(time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC))
	if slot != SlotPeak {
		t.Errorf("10:00 expected Peak, got %s", slot)
	}
}

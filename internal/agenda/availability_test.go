package agenda

import (
	"errors"
	"testing"
)

func testSummarizer(t *testing.T) *Summarizer {
	t.Helper()
	s, err := NewSummarizer(WorkSchedule{StartHour: 8, HoursPerDay: 9})
	if err != nil {
		t.Fatalf("new summarizer: %v", err)
	}
	return s
}

func TestDailyPercentageEmptyDay(t *testing.T) {
	s := testSummarizer(t)
	if got := s.DailyPercentage(nil); got != "100%" {
		t.Fatalf("expected 100%%, got %s", got)
	}
}

func TestDailyPercentageRounds(t *testing.T) {
	s := testSummarizer(t)

	// Eight of nine hours busy: 100 - 100*8/9 = 11.1 -> 11%.
	slots := make([]Slot, 0, 8)
	for h := 8; h < 16; h++ {
		slots = append(slots, Slot{Minutes: 60, StartHour: h})
	}
	if got := s.DailyPercentage(slots); got != "11%" {
		t.Fatalf("expected 11%%, got %s", got)
	}
}

func TestDailyPercentageFullDay(t *testing.T) {
	s := testSummarizer(t)
	slots := make([]Slot, 0, 9)
	for h := 8; h < 17; h++ {
		slots = append(slots, Slot{Minutes: 60, StartHour: h})
	}
	if got := s.DailyPercentage(slots); got != "0%" {
		t.Fatalf("expected 0%%, got %s", got)
	}
}

func TestDailyPercentageIgnoresRedistribution(t *testing.T) {
	// The percentage is a raw duration sum: two 50-minute jobs read as 100
	// busy minutes no matter which hours the hourly view settles them in.
	s := testSummarizer(t)
	slots := []Slot{
		{Minutes: 50, StartHour: 8},
		{Minutes: 50, StartHour: 8},
	}
	// 100 - 100*(100/60)/9 = 81.48 -> 81%.
	if got := s.DailyPercentage(slots); got != "81%" {
		t.Fatalf("expected 81%%, got %s", got)
	}
}

func TestWeeklyPercentageAllDaysFree(t *testing.T) {
	s := testSummarizer(t)
	got, err := s.WeeklyPercentage(func(string) ([]Slot, error) { return nil, nil })
	if err != nil {
		t.Fatalf("weekly percentage: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("expected 7 days, got %d", len(got))
	}
	for _, day := range WeekDays {
		if got[day] != "100%" {
			t.Fatalf("%s: expected 100%%, got %s", day, got[day])
		}
	}
}

func TestWeeklyPercentageMixedWeek(t *testing.T) {
	s := testSummarizer(t)
	busyMonday := make([]Slot, 0, 8)
	for h := 8; h < 16; h++ {
		busyMonday = append(busyMonday, Slot{Minutes: 60, StartHour: h})
	}

	got, err := s.WeeklyPercentage(func(day string) ([]Slot, error) {
		if day == "monday" {
			return busyMonday, nil
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("weekly percentage: %v", err)
	}
	if got["monday"] != "11%" {
		t.Fatalf("monday: expected 11%%, got %s", got["monday"])
	}
	if got["tuesday"] != "100%" {
		t.Fatalf("tuesday: expected 100%%, got %s", got["tuesday"])
	}
}

func TestWeeklyPercentagePropagatesFetchErrors(t *testing.T) {
	s := testSummarizer(t)
	boom := errors.New("store unavailable")
	if _, err := s.WeeklyPercentage(func(day string) ([]Slot, error) {
		if day == "wednesday" {
			return nil, boom
		}
		return nil, nil
	}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

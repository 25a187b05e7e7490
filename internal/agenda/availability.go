/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package agenda

import (
	"fmt"
	"math"
)

// Summarizer condenses a maintainer's load into percentage-availability
// figures for planner-facing ranking views.
type Summarizer struct {
	schedule WorkSchedule
}

// NewSummarizer validates the schedule and returns a summarizer bound to it.
func NewSummarizer(ws WorkSchedule) (*Summarizer, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &Summarizer{schedule: ws}, nil
}

// DailyPercentage expresses one day's free capacity as a percentage string.
// It is a raw sum over the day's slot durations, deliberately independent of
// the hourly redistribution: a day whose overflow the hourly view absorbed
// still reports the plain duration total here.
func (s *Summarizer) DailyPercentage(slots []Slot) string {
	busy := 0
	for _, slot := range slots {
		busy += slot.Minutes
	}
	pct := math.Round(100 - 100*(float64(busy)/60)/float64(s.schedule.HoursPerDay))
	return fmt.Sprintf("%d%%", int(pct))
}

// WeeklyPercentage computes the daily percentage for each of the seven
// weekdays in fixed order. fetch supplies the maintainer's slots for one
// weekday; errors abort the whole summary.
func (s *Summarizer) WeeklyPercentage(fetch func(weekDay string) ([]Slot, error)) (map[string]string, error) {
	out := make(map[string]string, len(WeekDays))
	for _, day := range WeekDays {
		slots, err := fetch(day)
		if err != nil {
			return nil, fmt.Errorf("fetch activities for %s: %w", day, err)
		}
		out[day] = s.DailyPercentage(slots)
	}
	return out, nil
}

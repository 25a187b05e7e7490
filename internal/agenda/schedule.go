/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package agenda

import "fmt"

// WorkSchedule fixes a maintainer's daily work window: the day starts at
// StartHour and spans HoursPerDay one-hour slots of 60 minutes each.
type WorkSchedule struct {
	StartHour   int
	HoursPerDay int
}

// Validate rejects schedules that cannot hold any work.
func (ws WorkSchedule) Validate() error {
	if ws.HoursPerDay <= 0 {
		return fmt.Errorf("work schedule needs at least one hour per day, got %d", ws.HoursPerDay)
	}
	if ws.StartHour < 0 || ws.StartHour > 23 {
		return fmt.Errorf("work start hour %d out of range", ws.StartHour)
	}
	return nil
}

// EndHour is the first hour past the work window.
func (ws WorkSchedule) EndHour() int {
	return ws.StartHour + ws.HoursPerDay
}

// ValidStartTime reports whether an activity may be scheduled at hour h.
// The upper bound is inclusive: h == EndHour is accepted, matching the
// behavior planners already rely on.
func (ws WorkSchedule) ValidStartTime(h int) bool {
	return h >= ws.StartHour && h <= ws.EndHour()
}

// WeekDays lists weekday names in the fixed order used across the API.
var WeekDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// IsWeekDay reports whether name is one of the seven known weekday names.
func IsWeekDay(name string) bool {
	for _, d := range WeekDays {
		if d == name {
			return true
		}
	}
	return false
}

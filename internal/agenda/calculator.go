/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package agenda computes per-hour free minutes for a maintainer's work day
// and answers whether a new activity fits without blowing the daily budget.
// It performs no I/O: callers fetch the activity slots and hand them in.
package agenda

import (
	"fmt"
	"sort"
)

// Slot is the read-only view of one assigned activity: how many minutes it
// takes and the hour it nominally starts in.
type Slot struct {
	ID        string
	Minutes   int
	StartHour int
}

// HourlyAgenda maps each work hour to its remaining free minutes. It is
// built fresh on every computation and never cached.
type HourlyAgenda map[int]int

// TotalFree sums the remaining free minutes over the whole day.
func (h HourlyAgenda) TotalFree() int {
	total := 0
	for _, free := range h {
		total += free
	}
	return total
}

// OverflowError reports that the day's workload cannot be redistributed
// into the work window. It is a business rejection, not a system fault.
type OverflowError struct {
	Hour    int
	Deficit int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("activities assigned at hour %d exceed the daily work schedule by %d minutes", e.Hour, e.Deficit)
}

// Calculator derives hourly agendas for one work schedule. It holds no
// per-request state and is safe for concurrent use.
type Calculator struct {
	schedule WorkSchedule
}

// NewCalculator validates the schedule and returns a calculator bound to it.
func NewCalculator(ws WorkSchedule) (*Calculator, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{schedule: ws}, nil
}

// Schedule returns the work schedule the calculator operates on.
func (c *Calculator) Schedule() WorkSchedule {
	return c.schedule
}

// ComputeHourlyAgenda starts every work hour at 60 free minutes, subtracts
// each slot's duration at its start hour, then walks the hours from last to
// first redistributing deficits. An over-booked hour pulls slack from the
// hours already walked — nearest later hour first — which models a
// maintainer letting an over-long task bleed into adjacent slots instead of
// strictly honoring its nominal hour. A deficit that no later hour can
// absorb fails the whole computation with *OverflowError.
func (c *Calculator) ComputeHourlyAgenda(slots []Slot) (HourlyAgenda, error) {
	free := make(HourlyAgenda, c.schedule.HoursPerDay)
	for h := c.schedule.StartHour; h < c.schedule.EndHour(); h++ {
		free[h] = 60
	}

	for _, slot := range slots {
		if _, ok := free[slot.StartHour]; ok {
			free[slot.StartHour] -= slot.Minutes
		} else {
			// Slots at the inclusive upper boundary have no hour bucket of
			// their own; their load lands on the last work hour.
			free[c.schedule.EndHour()-1] -= slot.Minutes
		}
	}

	hours := make([]int, 0, len(free))
	for h := range free {
		hours = append(hours, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(hours)))

	visited := make([]int, 0, len(hours))
	for _, h := range hours {
		// Pull spare minutes from already-visited (later) hours, most
		// recently visited first, until the deficit is covered.
		for i := len(visited) - 1; i >= 0 && free[h] < 0; i-- {
			v := visited[i]
			if free[v] <= 0 {
				continue
			}
			moved := free[v]
			if deficit := -free[h]; deficit < moved {
				moved = deficit
			}
			free[v] -= moved
			free[h] += moved
		}
		if free[h] < 0 {
			return nil, &OverflowError{Hour: h, Deficit: -free[h]}
		}
		visited = append(visited, h)
	}

	return free, nil
}

// CheckInsertable evaluates the hypothetical placement of candidate at
// startHour on top of the existing slots. The candidate's stored start hour
// is ignored; the hypothesis is explicit so fetched records are never
// mutated. The verdict comes back as (ok, reason) — overflow is a normal
// negative answer here, never an error.
func (c *Calculator) CheckInsertable(existing []Slot, candidate Slot, startHour int) (bool, string) {
	if !c.schedule.ValidStartTime(startHour) {
		return false, fmt.Sprintf("start_time should be an integer between %d and %d", c.schedule.StartHour, c.schedule.EndHour())
	}

	slots := make([]Slot, 0, len(existing)+1)
	for _, slot := range existing {
		// An activity being re-evaluated must not count against itself.
		if candidate.ID != "" && slot.ID == candidate.ID {
			continue
		}
		slots = append(slots, slot)
	}
	candidate.StartHour = startHour
	slots = append(slots, candidate)

	if _, err := c.ComputeHourlyAgenda(slots); err != nil {
		return false, err.Error()
	}
	return true, ""
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/agenda"
	"github.com/friendsincode/gantry/internal/models"
	"github.com/friendsincode/gantry/internal/pagination"
	"github.com/friendsincode/gantry/internal/telemetry"
)

// handleDailyAvailability returns a maintainer's free minutes per work hour
// on one day, evaluated for placing a candidate activity. The candidate's
// own slot is excluded so reassignment sees the day without it.
func (a *API) handleDailyAvailability(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	activityID := r.URL.Query().Get("activity_id")
	weekDay := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("week_day")))
	if activityID == "" {
		writeError(w, http.StatusBadRequest, "activity_id is required")
		return
	}
	if !agenda.IsWeekDay(weekDay) {
		writeError(w, http.StatusBadRequest, "week_day must be a lowercase weekday name")
		return
	}

	var activity models.MaintenanceActivity
	if err := a.db.First(&activity, "id = ?", activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "activity not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	var maintainer models.User
	if err := a.db.Where("username = ?", username).First(&maintainer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if maintainer.Role != models.RoleMaintainer {
		writeError(w, http.StatusBadRequest, "user is not a maintainer")
		return
	}

	week := activity.Week
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		parsed, err := strconv.Atoi(weekStr)
		if err != nil || parsed < 1 || parsed > 52 {
			writeError(w, http.StatusBadRequest, "week must be an integer between 1 and 52")
			return
		}
		week = parsed
	}

	slots, err := maintainerSlots(a.db, maintainer.ID, week, weekDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	filtered := slots[:0]
	for _, slot := range slots {
		if slot.ID != activity.ID {
			filtered = append(filtered, slot)
		}
	}

	hourly, err := a.calculator.ComputeHourlyAgenda(filtered)
	if err != nil {
		var overflow *agenda.OverflowError
		if errors.As(err, &overflow) {
			telemetry.AgendaComputationsTotal.WithLabelValues("overflow").Inc()
			writeError(w, http.StatusConflict, overflow.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	telemetry.AgendaComputationsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, hourly)
}

type weeklyAvailabilityRow struct {
	User               userView          `json:"user"`
	SkillCompliance    string            `json:"skill_compliance"`
	WeeklyAvailability map[string]string `json:"weekly_percentage_availability"`
	Week               int               `json:"week"`
}

// handleWeeklyAvailabilities lists every maintainer with their percentage
// availability per weekday for the week of the given activity. Planners use
// it to pick a maintainer before drilling into a daily agenda.
func (a *API) handleWeeklyAvailabilities(w http.ResponseWriter, r *http.Request) {
	var activity models.MaintenanceActivity
	if err := a.db.First(&activity, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "activity not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	query := a.db.Model(&models.User{}).Where("role = ?", models.RoleMaintainer)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	page := pagination.FromRequest(r)
	if !page.InRange(count) {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}

	var maintainers []models.User
	if err := query.Order("username").Scopes(page.Scope()).Find(&maintainers).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rows := make([]weeklyAvailabilityRow, 0, len(maintainers))
	for _, maintainer := range maintainers {
		weekly, err := a.summarizer.WeeklyPercentage(func(weekDay string) ([]agenda.Slot, error) {
			return maintainerSlots(a.db, maintainer.ID, activity.Week, weekDay)
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		rows = append(rows, weeklyAvailabilityRow{
			User:               viewUser(maintainer),
			SkillCompliance:    skillCompliance(maintainer, activity),
			WeeklyAvailability: weekly,
			Week:               activity.Week,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows": rows,
		"meta": page.MetaFor(count),
	})
}

// skillCompliance scores how well a maintainer's skills match an activity.
// Skill tracking is not modelled yet, so every maintainer scores the same.
func skillCompliance(_ models.User, _ models.MaintenanceActivity) string {
	return "3/5"
}

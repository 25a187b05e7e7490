/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/agenda"
	"github.com/friendsincode/gantry/internal/auth"
	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/models"
	"github.com/friendsincode/gantry/internal/pagination"
	"github.com/friendsincode/gantry/internal/telemetry"
)

type activityRequest struct {
	Type           models.ActivityType `json:"type"`
	Site           string              `json:"site"`
	Typology       string              `json:"typology"`
	Description    string              `json:"description"`
	EstimatedTime  int                 `json:"estimated_time"`
	Interruptible  bool                `json:"interruptible"`
	Materials      string              `json:"materials"`
	Week           int                 `json:"week"`
	WorkspaceNotes string              `json:"workspace_notes"`
}

func (req activityRequest) validate() string {
	if !req.Type.Valid() {
		return "type must be one of planned, unplanned, extra"
	}
	if req.EstimatedTime <= 0 {
		return "estimated_time must be a positive number of minutes"
	}
	if req.Week < 1 || req.Week > 52 {
		return "week must be an integer between 1 and 52"
	}
	return ""
}

func (a *API) handleListActivities(w http.ResponseWriter, r *http.Request) {
	query := a.db.Model(&models.MaintenanceActivity{})
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "week must be an integer")
			return
		}
		query = query.Where("week = ?", week)
	}
	if maintainer := r.URL.Query().Get("maintainer_id"); maintainer != "" {
		query = query.Where("maintainer_id = ?", maintainer)
	}

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

	var activities []models.MaintenanceActivity
	if err := query.Order("week, created_at").Scopes(page.Scope()).Find(&activities).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows": activities,
		"meta": page.MetaFor(count),
	})
}

func (a *API) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	activity := models.MaintenanceActivity{
		ID:             uuid.NewString(),
		Type:           req.Type,
		Site:           req.Site,
		Typology:       req.Typology,
		Description:    req.Description,
		EstimatedTime:  req.EstimatedTime,
		Interruptible:  req.Interruptible,
		Materials:      req.Materials,
		Week:           req.Week,
		WorkspaceNotes: req.WorkspaceNotes,
	}
	if err := a.db.Create(&activity).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.publishActivityEvent(r, events.EventActivityCreated, activity)
	writeJSON(w, http.StatusCreated, activity)
}

func (a *API) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := a.findActivity(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// handleUpdateActivity edits the workspace notes of an existing activity.
// The planning fields are immutable after creation; a mistyped activity is
// deleted and recreated instead.
func (a *API) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := a.findActivity(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		WorkspaceNotes string `json:"workspace_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity.WorkspaceNotes = req.WorkspaceNotes
	if err := a.db.Save(&activity).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.publishActivityEvent(r, events.EventActivityUpdated, activity)
	writeJSON(w, http.StatusOK, activity)
}

func (a *API) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := a.findActivity(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := a.db.Delete(&activity).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.publishActivityEvent(r, events.EventActivityDeleted, activity)
	writeJSON(w, http.StatusOK, map[string]string{"message": "activity deleted"})
}

type assignRequest struct {
	MaintainerUsername string `json:"maintainer_username"`
	WeekDay            string `json:"week_day"`
	StartTime          int    `json:"start_time"`
}

// handleAssignActivity commits an activity to a maintainer's daily agenda.
// The assignment is accepted only when the target day can still absorb the
// activity's estimated minutes.
func (a *API) handleAssignActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := a.findActivity(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.WeekDay = strings.ToLower(strings.TrimSpace(req.WeekDay))
	if !agenda.IsWeekDay(req.WeekDay) {
		writeError(w, http.StatusBadRequest, "week_day must be a lowercase weekday name")
		return
	}

	var maintainer models.User
	if err := a.db.Where("username = ?", req.MaintainerUsername).First(&maintainer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "maintainer not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if maintainer.Role != models.RoleMaintainer {
		writeError(w, http.StatusBadRequest, "user is not a maintainer")
		return
	}

	// Check and commit inside one transaction so a concurrent assignment to
	// the same maintainer cannot slip in between.
	tx := a.db.WithContext(r.Context()).Begin()
	if tx.Error != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	existing, err := maintainerSlots(tx, maintainer.ID, activity.Week, req.WeekDay)
	if err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	candidate := agenda.Slot{ID: activity.ID, Minutes: activity.EstimatedTime}
	insertable, reason := a.calculator.CheckInsertable(existing, candidate, req.StartTime)
	if !insertable {
		tx.Rollback()
		telemetry.AssignmentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, reason)
		return
	}

	activity.MaintainerID = &maintainer.ID
	activity.WeekDay = &req.WeekDay
	activity.StartTime = &req.StartTime

	if err := tx.Save(&activity).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	telemetry.AssignmentsTotal.WithLabelValues("accepted").Inc()
	a.publishActivityEvent(r, events.EventActivityAssigned, activity)
	writeJSON(w, http.StatusOK, activity)
}

// maintainerSlots loads a maintainer's assigned activities for one day of
// one week as agenda slots.
func maintainerSlots(db *gorm.DB, maintainerID string, week int, weekDay string) ([]agenda.Slot, error) {
	var assigned []models.MaintenanceActivity
	err := db.
		Where("maintainer_id = ? AND week = ? AND week_day = ?", maintainerID, week, weekDay).
		Find(&assigned).Error
	if err != nil {
		return nil, err
	}

	slots := make([]agenda.Slot, 0, len(assigned))
	for _, act := range assigned {
		if act.StartTime == nil {
			continue
		}
		slots = append(slots, agenda.Slot{
			ID:        act.ID,
			Minutes:   act.EstimatedTime,
			StartHour: *act.StartTime,
		})
	}
	return slots, nil
}

func (a *API) findActivity(w http.ResponseWriter, id string) (models.MaintenanceActivity, bool) {
	var activity models.MaintenanceActivity
	if err := a.db.First(&activity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "activity not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return models.MaintenanceActivity{}, false
	}
	return activity, true
}

func (a *API) publishActivityEvent(r *http.Request, eventType events.EventType, activity models.MaintenanceActivity) {
	actorID := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}
	a.bus.Publish(eventType, events.Payload{
		"user_id":       actorID,
		"resource_type": "activity",
		"resource_id":   activity.ID,
		"week":          activity.Week,
		"ip_address":    r.RemoteAddr,
	})
}

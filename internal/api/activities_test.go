package api

import (
	"net/http"
	"testing"

	"github.com/friendsincode/gantry/internal/models"
)

func TestActivitiesCRUDRequiresPlanner(t *testing.T) {
	_, handler, db := newTestAPI(t)
	maintainer := seedUser(t, db, "maintainer", "password", models.RoleMaintainer)

	rr := doRequest(t, handler, "GET", "/api/v1/activities/", tokenFor(t, maintainer), nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for maintainer, got %d", rr.Code)
	}

	// Planning is the planner's job; admins manage accounts, not schedules.
	admin := seedUser(t, db, "admin", "password", models.RoleAdmin)
	rr = doRequest(t, handler, "GET", "/api/v1/activities/", tokenFor(t, admin), nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin, got %d", rr.Code)
	}
	rr = doRequest(t, handler, "GET", "/api/v1/maintainers/maintainer/availability", tokenFor(t, admin), nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on availability, got %d", rr.Code)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	token := tokenFor(t, planner)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown type", map[string]any{"type": "mystery", "estimated_time": 30, "week": 1}},
		{"zero estimated time", map[string]any{"type": "planned", "estimated_time": 0, "week": 1}},
		{"week too small", map[string]any{"type": "planned", "estimated_time": 30, "week": 0}},
		{"week too large", map[string]any{"type": "planned", "estimated_time": 30, "week": 53}},
	}
	for _, tc := range cases {
		rr := doRequest(t, handler, "POST", "/api/v1/activities/", token, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rr.Code)
		}
	}
}

func TestCreateAndGetActivity(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	token := tokenFor(t, planner)

	rr := doRequest(t, handler, "POST", "/api/v1/activities/", token, map[string]any{
		"type":           "extra",
		"site":           "management",
		"typology":       "electrical",
		"description":    "replace breakers",
		"estimated_time": 60,
		"interruptible":  true,
		"materials":      "spikes",
		"week":           20,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created models.MaintenanceActivity
	decodeBody(t, rr, &created)
	if created.ID == "" || created.Week != 20 {
		t.Fatalf("unexpected activity: %+v", created)
	}
	if created.Assigned() {
		t.Fatal("new activity must not be assigned")
	}

	rr = doRequest(t, handler, "GET", "/api/v1/activities/"+created.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestListActivitiesFilteredByWeek(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	seedActivity(t, db, 20, 60)
	seedActivity(t, db, 20, 30)
	seedActivity(t, db, 21, 45)

	rr := doRequest(t, handler, "GET", "/api/v1/activities/?week=20", tokenFor(t, planner), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list struct {
		Rows []models.MaintenanceActivity `json:"rows"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	decodeBody(t, rr, &list)
	if list.Meta.Count != 2 || len(list.Rows) != 2 {
		t.Fatalf("expected 2 activities for week 20, got count=%d rows=%d", list.Meta.Count, len(list.Rows))
	}
}

func TestUpdateActivityWorkspaceNotesOnly(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	activity := seedActivity(t, db, 20, 60)

	rr := doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID, tokenFor(t, planner), map[string]any{
		"workspace_notes": "bring the long ladder",
		"estimated_time":  45,
		"week":            21,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var updated models.MaintenanceActivity
	if err := db.First(&updated, "id = ?", activity.ID).Error; err != nil {
		t.Fatalf("reload activity: %v", err)
	}
	if updated.WorkspaceNotes != "bring the long ladder" {
		t.Fatalf("expected workspace notes update, got %q", updated.WorkspaceNotes)
	}
	// The planning fields are not editable.
	if updated.EstimatedTime != 60 || updated.Week != 20 {
		t.Fatalf("planning fields must be immutable: %+v", updated)
	}
}

func TestDeleteActivity(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	activity := seedActivity(t, db, 20, 60)

	rr := doRequest(t, handler, "DELETE", "/api/v1/activities/"+activity.ID, tokenFor(t, planner), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doRequest(t, handler, "GET", "/api/v1/activities/"+activity.ID, tokenFor(t, planner), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestAssignActivity(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	seedUser(t, db, "worker", "password", models.RoleMaintainer)
	activity := seedActivity(t, db, 20, 60)

	rr := doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID+"/assign", tokenFor(t, planner), map[string]any{
		"maintainer_username": "worker",
		"week_day":            "monday",
		"start_time":          9,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var assigned models.MaintenanceActivity
	if err := db.First(&assigned, "id = ?", activity.ID).Error; err != nil {
		t.Fatalf("reload activity: %v", err)
	}
	if !assigned.Assigned() {
		t.Fatal("expected activity to be assigned")
	}
	if *assigned.WeekDay != "monday" || *assigned.StartTime != 9 {
		t.Fatalf("unexpected assignment: day=%v start=%v", *assigned.WeekDay, *assigned.StartTime)
	}
}

func TestAssignActivityFullDayRejected(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	worker := seedUser(t, db, "worker", "password", models.RoleMaintainer)

	// Fill every work hour of monday.
	for h := 8; h < 17; h++ {
		filler := seedActivity(t, db, 20, 60)
		assignSeed(t, db, filler, worker.ID, "monday", h)
	}
	candidate := seedActivity(t, db, 20, 30)

	rr := doRequest(t, handler, "PUT", "/api/v1/activities/"+candidate.ID+"/assign", tokenFor(t, planner), map[string]any{
		"maintainer_username": "worker",
		"week_day":            "monday",
		"start_time":          8,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overloaded day, got %d body=%s", rr.Code, rr.Body.String())
	}

	var reloaded models.MaintenanceActivity
	if err := db.First(&reloaded, "id = ?", candidate.ID).Error; err != nil {
		t.Fatalf("reload activity: %v", err)
	}
	if reloaded.Assigned() {
		t.Fatal("rejected assignment must not be persisted")
	}
}

func TestReassignActivityExcludesOwnSlot(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	worker := seedUser(t, db, "worker", "password", models.RoleMaintainer)

	// Fill monday completely, with the candidate holding the last hour.
	for h := 8; h < 16; h++ {
		filler := seedActivity(t, db, 20, 60)
		assignSeed(t, db, filler, worker.ID, "monday", h)
	}
	candidate := seedActivity(t, db, 20, 60)
	assignSeed(t, db, candidate, worker.ID, "monday", 16)

	// Moving the candidate within the same full day still fits because its
	// own slot is not counted against it.
	rr := doRequest(t, handler, "PUT", "/api/v1/activities/"+candidate.ID+"/assign", tokenFor(t, planner), map[string]any{
		"maintainer_username": "worker",
		"week_day":            "monday",
		"start_time":          16,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for reassignment, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAssignActivityErrors(t *testing.T) {
	_, handler, db := newTestAPI(t)
	planner := seedUser(t, db, "planner", "password", models.RolePlanner)
	seedUser(t, db, "worker", "password", models.RoleMaintainer)
	activity := seedActivity(t, db, 20, 60)
	token := tokenFor(t, planner)

	rr := doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID+"/assign", token, map[string]any{
		"maintainer_username": "ghost",
		"week_day":            "monday",
		"start_time":          9,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown maintainer, got %d", rr.Code)
	}

	rr = doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID+"/assign", token, map[string]any{
		"maintainer_username": "planner",
		"week_day":            "monday",
		"start_time":          9,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-maintainer target, got %d", rr.Code)
	}

	rr = doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID+"/assign", token, map[string]any{
		"maintainer_username": "worker",
		"week_day":            "someday",
		"start_time":          9,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid week day, got %d", rr.Code)
	}

	rr = doRequest(t, handler, "PUT", "/api/v1/activities/"+activity.ID+"/assign", token, map[string]any{
		"maintainer_username": "worker",
		"week_day":            "monday",
		"start_time":          30,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range start time, got %d", rr.Code)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/agenda"
	"github.com/friendsincode/gantry/internal/auth"
	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/models"
)

const testSecret = "test-secret"

func newTestAPI(t *testing.T) (*API, http.Handler, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.MaintenanceActivity{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a, err := New(Config{
		DB:        db,
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		Revoked:   auth.NewRevocationList(),
		Schedule:  agenda.WorkSchedule{StartHour: 8, HoursPerDay: 9},
		Bus:       events.NewBus(),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}

	r := chi.NewRouter()
	a.Routes(r)
	return a, r, db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, role models.RoleName) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedActivity(t *testing.T, db *gorm.DB, week, minutes int) models.MaintenanceActivity {
	t.Helper()
	activity := models.MaintenanceActivity{
		ID:            uuid.NewString(),
		Type:          models.ActivityPlanned,
		Site:          "management",
		Typology:      "electrical",
		EstimatedTime: minutes,
		Week:          week,
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	return activity
}

func assignSeed(t *testing.T, db *gorm.DB, activity models.MaintenanceActivity, maintainerID, weekDay string, startTime int) {
	t.Helper()
	activity.MaintainerID = &maintainerID
	activity.WeekDay = &weekDay
	activity.StartTime = &startTime
	if err := db.Save(&activity).Error; err != nil {
		t.Fatalf("assign activity: %v", err)
	}
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := auth.Issue([]byte(testSecret), auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, handler, _ := newTestAPI(t)

	rr := doRequest(t, handler, "GET", "/api/v1/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLoginAndLogout(t *testing.T) {
	_, handler, db := newTestAPI(t)
	seedUser(t, db, "planner", "password", models.RolePlanner)

	rr := doRequest(t, handler, "POST", "/api/v1/login", "", map[string]string{
		"username": "planner",
		"password": "password",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var loginResp struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	decodeBody(t, rr, &loginResp)
	if loginResp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if loginResp.Role != "planner" {
		t.Fatalf("expected role planner, got %q", loginResp.Role)
	}

	rr = doRequest(t, handler, "POST", "/api/v1/logout", loginResp.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// The revoked token no longer authenticates.
	rr = doRequest(t, handler, "POST", "/api/v1/logout", loginResp.AccessToken, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	_, handler, db := newTestAPI(t)
	seedUser(t, db, "planner", "password", models.RolePlanner)

	rr := doRequest(t, handler, "POST", "/api/v1/login", "", map[string]string{
		"username": "planner",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestChangePassword(t *testing.T) {
	_, handler, db := newTestAPI(t)
	user := seedUser(t, db, "maintainer", "old-password", models.RoleMaintainer)
	token := tokenFor(t, user)

	rr := doRequest(t, handler, "PUT", "/api/v1/password", token, map[string]string{
		"current_password": "old-password",
		"new_password":     "new-password",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, handler, "POST", "/api/v1/login", "", map[string]string{
		"username": "maintainer",
		"password": "new-password",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login with new password, got %d", rr.Code)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	_, handler, db := newTestAPI(t)
	user := seedUser(t, db, "maintainer", "password", models.RoleMaintainer)
	token := tokenFor(t, user)

	rr := doRequest(t, handler, "PUT", "/api/v1/password", token, map[string]string{
		"current_password": "wrong",
		"new_password":     "new-password",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

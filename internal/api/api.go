/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/agenda"
	"github.com/friendsincode/gantry/internal/auth"
	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/models"
)

// API carries the shared dependencies for all HTTP handlers.
type API struct {
	db         *gorm.DB
	jwtSecret  []byte
	tokenTTL   time.Duration
	revoked    *auth.RevocationList
	calculator *agenda.Calculator
	summarizer *agenda.Summarizer
	bus        *events.Bus
	logger     zerolog.Logger
}

// Config bundles the constructor arguments for New.
type Config struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
	Revoked   *auth.RevocationList
	Schedule  agenda.WorkSchedule
	Bus       *events.Bus
	Logger    zerolog.Logger
}

// New builds the API handler set.
func New(cfg Config) (*API, error) {
	calc, err := agenda.NewCalculator(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	summ, err := agenda.NewSummarizer(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	return &API{
		db:         cfg.DB,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL,
		revoked:    cfg.Revoked,
		calculator: calc,
		summarizer: summ,
		bus:        cfg.Bus,
		logger:     cfg.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// Routes mounts all API routes on the given router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Post("/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.jwtSecret, a.revoked))

			r.Post("/logout", a.handleLogout)
			r.Put("/password", a.handleChangePassword)

			r.Get("/events", a.handleEvents)

			r.Route("/users", func(r chi.Router) {
				r.Use(requireRoles(models.RoleAdmin))
				r.Get("/", a.handleListUsers)
				r.Post("/", a.handleCreateUser)
				r.Get("/{id}", a.handleGetUser)
				r.Put("/{id}", a.handleUpdateUser)
				r.Delete("/{id}", a.handleDeleteUser)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Use(requireRoles(models.RolePlanner))
				r.Get("/", a.handleListActivities)
				r.Post("/", a.handleCreateActivity)
				r.Get("/{id}", a.handleGetActivity)
				r.Put("/{id}", a.handleUpdateActivity)
				r.Delete("/{id}", a.handleDeleteActivity)
				r.Put("/{id}/assign", a.handleAssignActivity)
				r.Get("/{id}/availabilities", a.handleWeeklyAvailabilities)
			})

			r.Route("/maintainers", func(r chi.Router) {
				r.Use(requireRoles(models.RolePlanner))
				r.Get("/{username}/availability", a.handleDailyAvailability)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireRoles returns middleware that allows only the given roles.
func requireRoles(roles ...models.RoleName) func(http.Handler) http.Handler {
	allowed := make(map[models.RoleName]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed[claims.Role] {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/auth"
	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/models"
	"github.com/friendsincode/gantry/internal/pagination"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.Issue(a.jwtSecret, auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, a.tokenTTL)
	if err != nil {
		a.logger.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.bus.Publish(events.EventAuthLogin, events.Payload{
		"user_id":       user.ID,
		"resource_type": "user",
		"resource_id":   user.ID,
		"ip_address":    r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"role":         user.Role,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)

	a.bus.Publish(events.EventAuthLogout, events.Payload{
		"user_id":       claims.UserID,
		"resource_type": "user",
		"resource_id":   claims.UserID,
		"ip_address":    r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}

	var user models.User
	if err := a.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := a.db.Model(&user).Update("password", string(hashed)).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// userView is the API representation of a user; the password hash never
// leaves the server.
type userView struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Role     models.RoleName `json:"role"`
}

func viewUser(u models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := a.db.Model(&models.User{})
	if role := r.URL.Query().Get("role"); role != "" {
		query = query.Where("role = ?", role)
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

	var users []models.User
	if err := query.Order("username").Scopes(page.Scope()).Find(&users).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rows := make([]userView, 0, len(users))
	for _, u := range users {
		rows = append(rows, viewUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows": rows,
		"meta": page.MetaFor(count),
	})
}

type userRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.RoleName `json:"role"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	var existing models.User
	err := a.db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		writeError(w, http.StatusBadRequest, "username already taken")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Password: string(hashed),
		Role:     req.Role,
	}
	if err := a.db.Create(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.publishUserEvent(r, events.EventUserCreated, user)
	writeJSON(w, http.StatusCreated, viewUser(user))
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := a.findUser(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewUser(user))
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := a.findUser(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]any{}
	if req.Username = strings.TrimSpace(req.Username); req.Username != "" && req.Username != user.Username {
		var clash models.User
		if err := a.db.Where("username = ?", req.Username).First(&clash).Error; err == nil {
			writeError(w, http.StatusBadRequest, "username already taken")
			return
		}
		updates["username"] = req.Username
		user.Username = req.Username
	}
	if req.Role != "" {
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		updates["role"] = req.Role
		user.Role = req.Role
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		updates["password"] = string(hashed)
	}

	if len(updates) > 0 {
		if err := a.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	a.publishUserEvent(r, events.EventUserUpdated, user)
	writeJSON(w, http.StatusOK, viewUser(user))
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := a.findUser(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := a.db.Delete(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.publishUserEvent(r, events.EventUserDeleted, user)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (a *API) findUser(w http.ResponseWriter, id string) (models.User, bool) {
	var user models.User
	if err := a.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return models.User{}, false
	}
	return user, true
}

func (a *API) publishUserEvent(r *http.Request, eventType events.EventType, user models.User) {
	actorID := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}
	a.bus.Publish(eventType, events.Payload{
		"user_id":       actorID,
		"resource_type": "user",
		"resource_id":   user.ID,
		"username":      user.Username,
		"ip_address":    r.RemoteAddr,
	})
}

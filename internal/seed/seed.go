/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package seed populates a fresh database with development fixtures.
package seed

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/models"
)

const defaultPassword = "password"

var sites = []string{"management", "plant-a", "plant-b", "warehouse", "workshop"}

var typologies = []string{"electrical", "mechanical", "hydraulic", "hvac", "safety"}

// Run wipes user and activity tables and loads fixtures: one account per
// role, extra maintainers, and a batch of unassigned activities.
func Run(db *gorm.DB, logger zerolog.Logger, extraMaintainers, activities int) error {
	logger.Info().Msg("emptying database")
	if err := db.Exec("DELETE FROM maintenance_activities").Error; err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	logger.Info().Msg("adding base users")
	base := []models.User{
		{ID: uuid.NewString(), Username: "admin", Password: string(hashed), Role: models.RoleAdmin},
		{ID: uuid.NewString(), Username: "planner", Password: string(hashed), Role: models.RolePlanner},
		{ID: uuid.NewString(), Username: "maintainer", Password: string(hashed), Role: models.RoleMaintainer},
	}
	for i := 0; i < extraMaintainers; i++ {
		base = append(base, models.User{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("maintainer-%02d", i+1),
			Password: string(hashed),
			Role:     models.RoleMaintainer,
		})
	}
	for _, user := range base {
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", user.Username, err)
		}
		logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("added user")
	}

	logger.Info().Int("count", activities).Msg("adding maintenance activities")
	types := []models.ActivityType{models.ActivityPlanned, models.ActivityUnplanned, models.ActivityExtra}
	for i := 0; i < activities; i++ {
		site := sites[rand.Intn(len(sites))]
		typology := typologies[rand.Intn(len(typologies))]
		activity := models.MaintenanceActivity{
			ID:            uuid.NewString(),
			Type:          types[rand.Intn(len(types))],
			Site:          site,
			Typology:      typology,
			Description:   fmt.Sprintf("%s maintenance at %s", typology, site),
			EstimatedTime: 10 + rand.Intn(91),
			Interruptible: rand.Intn(2) == 0,
			Week:          1 + rand.Intn(52),
		}
		if err := db.Create(&activity).Error; err != nil {
			return fmt.Errorf("create activity: %w", err)
		}
	}

	logger.Info().Msg("seeding completed")
	return nil
}

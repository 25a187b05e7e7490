package models

import "time"

// RoleName enumerates the RBAC roles. Every user carries exactly one.
type RoleName string

const (
	RoleAdmin      RoleName = "admin"
	RolePlanner    RoleName = "planner"
	RoleMaintainer RoleName = "maintainer"
)

// Valid reports whether r is one of the known roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleAdmin, RolePlanner, RoleMaintainer:
		return true
	}
	return false
}

// User represents an authenticated account.
type User struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Password  string
	Role      RoleName `gorm:"type:varchar(16)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityType enumerates maintenance activity categories.
type ActivityType string

const (
	ActivityPlanned   ActivityType = "planned"
	ActivityUnplanned ActivityType = "unplanned"
	ActivityExtra     ActivityType = "extra"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityPlanned, ActivityUnplanned, ActivityExtra:
		return true
	}
	return false
}

// MaintenanceActivity is one unit of maintenance work, planned into a week
// and optionally assigned to a maintainer at a weekday and start hour.
// Assignment fields stay null until a planner commits an assignment.
type MaintenanceActivity struct {
	ID             string       `gorm:"type:uuid;primaryKey"`
	Type           ActivityType `gorm:"type:varchar(16)"`
	Site           string
	Typology       string
	Description    string `gorm:"type:text"`
	EstimatedTime  int    // minutes
	Interruptible  bool
	Materials      string
	Week           int    `gorm:"index;check:week >= 1 AND week <= 52"`
	WorkspaceNotes string `gorm:"type:text"`

	MaintainerID *string `gorm:"type:uuid;index"`
	WeekDay      *string `gorm:"type:varchar(16)"`
	StartTime    *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assigned reports whether the activity has a committed assignment.
func (a MaintenanceActivity) Assigned() bool {
	return a.MaintainerID != nil && a.WeekDay != nil && a.StartTime != nil
}

// AuditEntry records a sensitive operation for later review.
type AuditEntry struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Action       string    `gorm:"type:varchar(64);index"`
	UserID       string    `gorm:"type:uuid;index"`
	ResourceType string    `gorm:"type:varchar(32)"`
	ResourceID   string    `gorm:"type:uuid"`
	Detail       string    `gorm:"type:text"`
	IPAddress    string
	CreatedAt    time.Time `gorm:"index"`
}

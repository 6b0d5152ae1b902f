package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the typed permission level of a user. It replaces dynamic
// group-name lookups with an explicit enum checked at the route level.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

// CanManageUsers reports whether the role may create demands and manage
// leaves and user accounts.
func (r Role) CanManageUsers() bool { return r == RoleManager }

// User stores staff accounts with optional TOTP two-factor authentication.
//
// Available is a materialized view of the availability computation: its
// authoritative value is always recomputable from the user's leaves, and
// the leave service's status sync is its single writer.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	FirstName    string
	LastName     string
	Email        *string `gorm:"uniqueIndex"`
	PasswordHash string  `gorm:"not null"`
	Role         Role    `gorm:"type:varchar(20);not null;default:'staff'"`

	MFASecret  string `gorm:"column:mfa_secret"`
	MFAEnabled bool   `gorm:"column:mfa_enabled;not null;default:false"`

	Available bool `gorm:"not null;default:true"`
	Active    bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

package dto

import (
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegisterUserRequest creates an account with the default password; the
// user is prompted to change it on first login.
type RegisterUserRequest struct {
	Username  string  `json:"username"   validate:"required,min=1,max=150"`
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name"  validate:"omitempty,max=100"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Role      string  `json:"role"       validate:"required,oneof=staff manager"`
}

// UpdateUserRequest edits a profile. Role is only honored when a manager
// edits another user: nobody may change their own role.
type UpdateUserRequest struct {
	Username  string  `json:"username"   validate:"omitempty,min=1,max=150"`
	FirstName string  `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  string  `json:"last_name"  validate:"omitempty,max=100"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Role      string  `json:"role"       validate:"omitempty,oneof=staff manager"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      *string `json:"email"`
	Role       string  `json:"role"`
	MFAEnabled bool    `json:"mfa_enabled"`
	Available  bool    `json:"available"`
	Active     bool    `json:"active"`
}

type UserListResponse struct {
	Items      []UserResponse    `json:"items"`
	Pagination pagination.Window `json:"pagination"`
}

// MapUser converts a model to its response form.
func MapUser(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       string(u.Role),
		MFAEnabled: u.MFAEnabled,
		Available:  u.Available,
		Active:     u.Active,
	}
}

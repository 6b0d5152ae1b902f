package dto

import (
	"github.com/lbc354/sgp/internal/availability"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateLeaveRequest registers an absence period. Dates use ISO 8601
// (yyyy-mm-dd) as submitted by date inputs.
type CreateLeaveRequest struct {
	UserID      string `json:"user_id"     validate:"required,uuid"`
	Description string `json:"description" validate:"required,oneof=vacation leave recess suspension"`
	Observation string `json:"observation" validate:"omitempty,max=255"`
	StartDate   string `json:"start_date"  validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date"    validate:"required,datetime=2006-01-02"`
}

type UpdateLeaveRequest struct {
	Description string `json:"description" validate:"required,oneof=vacation leave recess suspension"`
	Observation string `json:"observation" validate:"omitempty,max=255"`
	StartDate   string `json:"start_date"  validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date"    validate:"required,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LeaveResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Description string   `json:"description"`
	Observation string   `json:"observation,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Active      bool     `json:"active"`
	Interrupted bool     `json:"interrupted"`
	Warnings    []string `json:"warnings,omitempty"`
}

// LeaveSummary is the short form shown on the board for next/last leaves.
type LeaveSummary struct {
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// UserAvailability is one row of the leave board.
type UserAvailability struct {
	User         UserResponse  `json:"user"`
	Available    bool          `json:"available"`
	Availability string        `json:"availability,omitempty"`
	NextLeave    *LeaveSummary `json:"next_leave"`
	LastLeave    *LeaveSummary `json:"last_leave"`
}

type LeaveBoardResponse struct {
	Items      []UserAvailability `json:"items"`
	Pagination pagination.Window  `json:"pagination"`
}

// LeaveHistoryEntry is one row of a user's active or interrupted history.
// ShowActions is the explicit capability flag: entries whose end date has
// passed can no longer be edited or interrupted.
type LeaveHistoryEntry struct {
	Leave       LeaveResponse `json:"leave"`
	Observation string        `json:"observation"`
	ShowActions bool          `json:"show_actions"`
}

type LeaveHistoryResponse struct {
	User       UserResponse        `json:"user"`
	Items      []LeaveHistoryEntry `json:"items"`
	Pagination pagination.Window   `json:"pagination"`
}

// MapLeave converts a model to its response form.
func MapLeave(l *model.Leave) LeaveResponse {
	return LeaveResponse{
		ID:          l.ID.String(),
		UserID:      l.UserID.String(),
		Description: string(l.Description),
		Observation: l.Observation,
		StartDate:   l.StartDate.Format("2006-01-02"),
		EndDate:     l.EndDate.Format("2006-01-02"),
		Active:      l.Active,
		Interrupted: l.Interrupted,
	}
}

// MapLeaveSummary formats a leave for the board's next/last columns.
func MapLeaveSummary(l *model.Leave) *LeaveSummary {
	if l == nil {
		return nil
	}
	return &LeaveSummary{
		Description: l.Description.Display(),
		StartDate:   l.StartDate.Format(availability.DateFormat),
		EndDate:     l.EndDate.Format(availability.DateFormat),
	}
}

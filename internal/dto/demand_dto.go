package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateDemandRequest struct {
	Category     string `json:"category"       validate:"required,oneof=technical_support administrative"`
	Title        string `json:"title"          validate:"required,min=1,max=255"`
	Description  string `json:"description"    validate:"required"`
	DueDate      string `json:"due_date"       validate:"omitempty,datetime=2006-01-02"`
	AssignedToID string `json:"assigned_to_id" validate:"required,uuid"`
}

type UpdateDemandRequest struct {
	Category     string `json:"category"       validate:"required,oneof=technical_support administrative"`
	Title        string `json:"title"          validate:"required,min=1,max=255"`
	Description  string `json:"description"    validate:"required"`
	DueDate      string `json:"due_date"       validate:"omitempty,datetime=2006-01-02"`
	AssignedToID string `json:"assigned_to_id" validate:"required,uuid"`
}

// DemandFilter collects the list endpoint's query parameters. Month is
// "YYYY-MM"; invalid values are ignored upstream, mirroring the original
// behavior of silently dropping an unparsable date filter.
type DemandFilter struct {
	Completed  bool
	Query      string
	Month      string
	AssignedTo *uuid.UUID // non-nil restricts to one user (staff viewers)
	Page       int
	PerPage    int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DemandResponse struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	AssignedTo  string  `json:"assigned_to"`
	AssignedBy  string  `json:"assigned_by,omitempty"`
	Completed   bool    `json:"completed"`
	// Editable is the capability flag for the client: completed demands
	// are read-only.
	Editable  bool      `json:"editable"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Warnings []string `json:"warnings,omitempty"`
}

type DemandListResponse struct {
	Items      []DemandResponse  `json:"items"`
	Pagination pagination.Window `json:"pagination"`
}

type DemandHistoryResponse struct {
	DemandID   string            `json:"demand_id"`
	Items      []DemandResponse  `json:"items"`
	Pagination pagination.Window `json:"pagination"`
}

// WorkloadRow counts a user's open demands due in the previous, current and
// next ISO weeks; shown on the demand creation page to help balance
// assignment.
type WorkloadRow struct {
	User         string `json:"user"`
	PreviousWeek int    `json:"previous_week"`
	CurrentWeek  int    `json:"current_week"`
	NextWeek     int    `json:"next_week"`
	Total        int    `json:"total"`
}

type WorkloadResponse struct {
	Rows []WorkloadRow `json:"rows"`
}

// MapDemand converts a model to its response form. Usernames are resolved
// from the preloaded associations when present.
func MapDemand(d *model.Demand) DemandResponse {
	resp := DemandResponse{
		ID:          d.ID.String(),
		Category:    string(d.Category),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Editable:    !d.Completed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.DueDate != nil {
		due := d.DueDate.Format("2006-01-02")
		resp.DueDate = &due
	}
	if d.AssignedTo != nil {
		resp.AssignedTo = d.AssignedTo.Username
	} else {
		resp.AssignedTo = d.AssignedToID.String()
	}
	if d.AssignedBy != nil {
		resp.AssignedBy = d.AssignedBy.Username
	}
	return resp
}

// MapDemandHistory renders a snapshot in the same shape as its parent.
func MapDemandHistory(h *model.DemandHistory) DemandResponse {
	resp := DemandResponse{
		ID:          h.ID.String(),
		Category:    string(h.Category),
		Title:       h.Title,
		Description: h.Description,
		Completed:   h.Completed,
		Editable:    false, // history entries are immutable
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.CreatedAt,
		AssignedTo:  h.AssignedToID.String(),
	}
	if h.DueDate != nil {
		due := h.DueDate.Format("2006-01-02")
		resp.DueDate = &due
	}
	if h.AssignedByID != nil {
		resp.AssignedBy = h.AssignedByID.String()
	}
	return resp
}

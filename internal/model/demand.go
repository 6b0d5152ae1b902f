package model

import (
	"time"

	"github.com/google/uuid"
)

// DemandCategory classifies a demand.
type DemandCategory string

const (
	CategoryTechnicalSupport DemandCategory = "technical_support"
	CategoryAdministrative   DemandCategory = "administrative"
)

// Demand is a work item assigned to a staff member with an optional due
// date and a completion flag.
type Demand struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	Category    DemandCategory `gorm:"type:varchar(20);not null"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"type:text;not null"`
	DueDate     *time.Time     `gorm:"type:date"`

	AssignedToID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssignedByID *uuid.UUID `gorm:"type:uuid"`

	Completed bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	AssignedTo *User `gorm:"foreignKey:AssignedToID"`
	AssignedBy *User `gorm:"foreignKey:AssignedByID"`
}

// DemandHistory is an immutable snapshot of a demand's business fields,
// appended on every create and edit. Entries are owned by their parent
// demand and disappear with it (cascade delete); they are never mutated.
type DemandHistory struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DemandID uuid.UUID `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE"`

	Category    DemandCategory `gorm:"type:varchar(20);not null"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"type:text;not null"`
	DueDate     *time.Time     `gorm:"type:date"`

	AssignedToID uuid.UUID  `gorm:"type:uuid;not null"`
	AssignedByID *uuid.UUID `gorm:"type:uuid"`

	Completed bool `gorm:"not null;default:false"`

	CreatedAt time.Time

	Demand *Demand `gorm:"foreignKey:DemandID;constraint:OnDelete:CASCADE"`
}

// Snapshot copies the demand's current business fields into a new history
// entry linked to it.
func (d *Demand) Snapshot() *DemandHistory {
	return &DemandHistory{
		DemandID:     d.ID,
		Category:     d.Category,
		Title:        d.Title,
		Description:  d.Description,
		DueDate:      d.DueDate,
		AssignedToID: d.AssignedToID,
		AssignedByID: d.AssignedByID,
		Completed:    d.Completed,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaveKind classifies an absence period.
type LeaveKind string

const (
	LeaveVacation   LeaveKind = "vacation"
	LeaveLeave      LeaveKind = "leave"
	LeaveRecess     LeaveKind = "recess"
	LeaveSuspension LeaveKind = "suspension"
)

// Display returns the human-readable form used in labels and emails.
func (k LeaveKind) Display() string {
	switch k {
	case LeaveVacation:
		return "Vacation"
	case LeaveLeave:
		return "Leave"
	case LeaveRecess:
		return "Recess"
	case LeaveSuspension:
		return "Suspension"
	}
	return string(k)
}

// Leave is a recorded absence period for a user. Records are never
// physically deleted: interrupting a leave flags it instead, and resuming
// clears the flag. Active marks the record currently making its user
// unavailable; it is maintained by the leave service's status sync.
type Leave struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ResponsibleID *uuid.UUID `gorm:"type:uuid"`

	Description LeaveKind `gorm:"type:varchar(25);not null"`
	Observation string
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`

	Active      bool `gorm:"column:is_active;not null;default:true"`
	Interrupted bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User        *User `gorm:"foreignKey:UserID"`
	Responsible *User `gorm:"foreignKey:ResponsibleID"`
}

// DurationDays is the leave span in days, end minus start.
func (l *Leave) DurationDays() int {
	return int(l.EndDate.Sub(l.StartDate).Hours() / 24)
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use token emailed to a user who requested
// a password reset. Tokens expire after a configurable TTL (1 hour by
// default) and are deleted once consumed.
type PasswordResetToken struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE"`
	Token  string    `gorm:"uniqueIndex;not null"`

	CreatedAt time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Valid reports whether the token is still within its lifetime.
func (t *PasswordResetToken) Valid(ttl time.Duration, now time.Time) bool {
	return now.Sub(t.CreatedAt) < ttl
}

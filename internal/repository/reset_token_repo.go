package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/model"
)

type ResetTokenRepository interface {
	Create(ctx context.Context, t *model.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
	// DeleteByUser removes every token of the user; called on consumption
	// so stale links stop working once the password has changed.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type resetTokenRepo struct{ db *gorm.DB }

func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepo{db: db}
}

func (r *resetTokenRepo) Create(ctx context.Context, t *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *resetTokenRepo) FindByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error
	return &t, err
}

func (r *resetTokenRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PasswordResetToken{}).Error
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/model"
)

type LeaveRepository interface {
	Create(ctx context.Context, l *model.Leave) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Leave, error)
	Update(ctx context.Context, l *model.Leave) error
	// ListByUser returns every leave record of a user, interrupted or not,
	// ordered deterministically for the availability computation.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Leave, error)
	// History returns the records shown on the active (interrupted=false)
	// or interrupted history pages, newest start date first.
	History(ctx context.Context, userID uuid.UUID, interrupted bool) ([]model.Leave, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// DeactivateAllExcept clears is_active on every leave of the user other
	// than the given one. A nil except clears all. Idempotent by
	// construction: rows already inactive are not touched.
	DeactivateAllExcept(ctx context.Context, userID uuid.UUID, except *uuid.UUID) error
	SetInterrupted(ctx context.Context, id uuid.UUID, interrupted bool) error
}

type leaveRepo struct{ db *gorm.DB }

func NewLeaveRepository(db *gorm.DB) LeaveRepository { return &leaveRepo{db: db} }

func (r *leaveRepo) Create(ctx context.Context, l *model.Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *leaveRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	var l model.Leave
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *leaveRepo) Update(ctx context.Context, l *model.Leave) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *leaveRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Leave, error) {
	var leaves []model.Leave
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date ASC, created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *leaveRepo) History(ctx context.Context, userID uuid.UUID, interrupted bool) ([]model.Leave, error) {
	var leaves []model.Leave
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND interrupted = ?", userID, interrupted).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *leaveRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Leave{}).
		Where("id = ? AND is_active <> ?", id, active).
		Update("is_active", active).Error
}

func (r *leaveRepo) DeactivateAllExcept(ctx context.Context, userID uuid.UUID, except *uuid.UUID) error {
	q := r.db.WithContext(ctx).Model(&model.Leave{}).
		Where("user_id = ? AND is_active = true", userID)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	return q.Update("is_active", false).Error
}

func (r *leaveRepo) SetInterrupted(ctx context.Context, id uuid.UUID, interrupted bool) error {
	return r.db.WithContext(ctx).Model(&model.Leave{}).
		Where("id = ?", id).Update("interrupted", interrupted).Error
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
)

type DemandRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.Demand) error
	Update(ctx context.Context, tx *gorm.DB, d *model.Demand) error
	CreateHistory(ctx context.Context, tx *gorm.DB, h *model.DemandHistory) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Demand, error)
	List(ctx context.Context, filter dto.DemandFilter) ([]model.Demand, int64, error)
	// ListOpenDue returns all incomplete demands carrying a due date,
	// for the weekly workload summary.
	ListOpenDue(ctx context.Context) ([]model.Demand, error)
	// PendingInPeriod reports whether the user has an incomplete demand
	// whose due date falls inside [start, end].
	PendingInPeriod(ctx context.Context, userID uuid.UUID, start, end string) (bool, error)
	HistoryByDemand(ctx context.Context, demandID uuid.UUID) ([]model.DemandHistory, error)
	// Transact runs fn inside a transaction; the write methods above take
	// the tx handle so a demand and its history snapshot commit together.
	Transact(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type demandRepo struct{ db *gorm.DB }

func NewDemandRepository(db *gorm.DB) DemandRepository { return &demandRepo{db: db} }

func (r *demandRepo) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *demandRepo) Create(ctx context.Context, tx *gorm.DB, d *model.Demand) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *demandRepo) Update(ctx context.Context, tx *gorm.DB, d *model.Demand) error {
	return tx.WithContext(ctx).Save(d).Error
}

func (r *demandRepo) CreateHistory(ctx context.Context, tx *gorm.DB, h *model.DemandHistory) error {
	return tx.WithContext(ctx).Create(h).Error
}

func (r *demandRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Demand, error) {
	var d model.Demand
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").Preload("AssignedBy").
		First(&d, "demands.id = ?", id).Error
	return &d, err
}

func (r *demandRepo) List(ctx context.Context, filter dto.DemandFilter) ([]model.Demand, int64, error) {
	var demands []model.Demand
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Demand{}).
		Joins("LEFT JOIN users AS assignee ON assignee.id = demands.assigned_to_id").
		Joins("LEFT JOIN users AS assigner ON assigner.id = demands.assigned_by_id").
		Where("demands.completed = ?", filter.Completed)

	if filter.AssignedTo != nil {
		q = q.Where("demands.assigned_to_id = ?", *filter.AssignedTo)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where(`(demands.category ILIKE ? OR demands.title ILIKE ?
			OR demands.description ILIKE ?
			OR assignee.username ILIKE ? OR assigner.username ILIKE ?)`,
			like, like, like, like, like)
	}
	if filter.Month != "" {
		q = q.Where(`(to_char(demands.due_date, 'YYYY-MM') = ?
			OR to_char(demands.created_at, 'YYYY-MM') = ?
			OR to_char(demands.updated_at, 'YYYY-MM') = ?)`,
			filter.Month, filter.Month, filter.Month)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	err := q.Preload("AssignedTo").Preload("AssignedBy").
		Order("demands.updated_at DESC, demands.created_at DESC").
		Offset(offset).Limit(filter.PerPage).
		Find(&demands).Error

	return demands, total, err
}

func (r *demandRepo) ListOpenDue(ctx context.Context) ([]model.Demand, error) {
	var demands []model.Demand
	err := r.db.WithContext(ctx).
		Where("completed = false AND due_date IS NOT NULL").
		Find(&demands).Error
	return demands, err
}

func (r *demandRepo) PendingInPeriod(ctx context.Context, userID uuid.UUID, start, end string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Demand{}).
		Where("assigned_to_id = ? AND completed = false AND due_date BETWEEN ? AND ?",
			userID, start, end).
		Count(&count).Error
	return count > 0, err
}

func (r *demandRepo) HistoryByDemand(ctx context.Context, demandID uuid.UUID) ([]model.DemandHistory, error) {
	var entries []model.DemandHistory
	err := r.db.WithContext(ctx).
		Where("demand_id = ?", demandID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

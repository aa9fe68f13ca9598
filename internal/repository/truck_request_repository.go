package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yard-service/internal/model"
)

const priorityRankExpr = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END"

type TruckRequestRepository struct {
	db   *gorm.DB
	lock bool
}

func NewTruckRequestRepository(db *gorm.DB, lock bool) *TruckRequestRepository {
	return &TruckRequestRepository{db: db, lock: lock}
}

func (r *TruckRequestRepository) Create(ctx context.Context, request *model.TruckRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *TruckRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TruckRequest, error) {
	var request model.TruckRequest
	if err := first(r.db.WithContext(ctx), r.lock, &request, "id = ?", id); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *TruckRequestRepository) Update(ctx context.Context, request *model.TruckRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *TruckRequestRepository) filtered(ctx context.Context, filter RequestFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.TruckRequest{})

	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.DriverID != nil {
		query = query.Where("assigned_driver_id = ?", *filter.DriverID)
	}
	if filter.AssignedBy != nil {
		query = query.Where("assigned_by = ?", *filter.AssignedBy)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}
	if filter.RequiredBefore != nil {
		query = query.Where("required_time IS NOT NULL AND required_time < ?", *filter.RequiredBefore)
	}
	if filter.UpdatedFrom != nil {
		query = query.Where("updated_at >= ?", *filter.UpdatedFrom)
	}

	return query
}

func (r *TruckRequestRepository) List(ctx context.Context, filter RequestFilter) ([]model.TruckRequest, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := filter.Pagination.apply(r.filtered(ctx, filter))
	if filter.SortByPriority {
		query = query.Order(priorityRankExpr + " DESC").Order("created_at ASC")
	} else {
		query = query.Order("created_at DESC")
	}

	var requests []model.TruckRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *TruckRequestRepository) Count(ctx context.Context, filter RequestFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *TruckRequestRepository) CountByStatus(ctx context.Context, filter RequestFilter) (map[model.RequestStatus]int64, error) {
	return groupCount[model.RequestStatus](r.filtered(ctx, filter), "status")
}

func (r *TruckRequestRepository) CountByPriority(ctx context.Context, filter RequestFilter) (map[model.Priority]int64, error) {
	return groupCount[model.Priority](r.filtered(ctx, filter), "priority")
}

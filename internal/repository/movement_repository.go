package repository

import (
	"context"

	"gorm.io/gorm"

	"yard-service/internal/model"
)

// MovementRepository only appends; yard movements are never updated or deleted.
type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Create(ctx context.Context, movement *model.YardMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *MovementRepository) filtered(ctx context.Context, filter MovementFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.YardMovement{})
	if filter.SwitcherID != nil {
		query = query.Where("switcher_id = ?", *filter.SwitcherID)
	}
	if filter.TruckID != nil {
		query = query.Where("truck_id = ?", *filter.TruckID)
	}
	if filter.TruckRequestID != nil {
		query = query.Where("truck_request_id = ?", *filter.TruckRequestID)
	}
	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", *filter.MovementType)
	}
	if filter.From != nil {
		query = query.Where("actual_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("actual_time < ?", *filter.To)
	}
	return query
}

func (r *MovementRepository) List(ctx context.Context, filter MovementFilter) ([]model.YardMovement, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []model.YardMovement
	err := filter.Pagination.apply(r.filtered(ctx, filter)).Order("actual_time DESC").Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (r *MovementRepository) CountByType(ctx context.Context, filter MovementFilter) (map[model.MovementType]int64, error) {
	return groupCount[model.MovementType](r.filtered(ctx, filter), "movement_type")
}

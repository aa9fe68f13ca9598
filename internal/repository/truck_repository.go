package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yard-service/internal/model"
)

type TruckRepository struct {
	db   *gorm.DB
	lock bool
}

func NewTruckRepository(db *gorm.DB, lock bool) *TruckRepository {
	return &TruckRepository{db: db, lock: lock}
}

func (r *TruckRepository) Create(ctx context.Context, truck *model.Truck) error {
	return r.db.WithContext(ctx).Create(truck).Error
}

func (r *TruckRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Truck, error) {
	var truck model.Truck
	if err := first(r.db.WithContext(ctx), r.lock, &truck, "id = ?", id); err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *TruckRepository) FindDuplicate(ctx context.Context, truckNumber, plateNumber string) (*model.Truck, error) {
	var truck model.Truck
	err := first(r.db.WithContext(ctx), false, &truck, "truck_number = ? OR plate_number = ?", truckNumber, plateNumber)
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *TruckRepository) Update(ctx context.Context, truck *model.Truck) error {
	return r.db.WithContext(ctx).Save(truck).Error
}

func (r *TruckRepository) filtered(ctx context.Context, filter TruckFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Truck{}).Where("is_active = ?", true)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.AvailableOnly {
		query = query.Where("status = ? AND assigned_driver_id IS NULL", model.TruckStatusAvailable)
	}
	return query
}

func (r *TruckRepository) List(ctx context.Context, filter TruckFilter) ([]model.Truck, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var trucks []model.Truck
	err := filter.Pagination.apply(r.filtered(ctx, filter)).Order("truck_number ASC").Find(&trucks).Error
	if err != nil {
		return nil, 0, err
	}
	return trucks, total, nil
}

func (r *TruckRepository) CountByStatus(ctx context.Context) (map[model.TruckStatus]int64, error) {
	return groupCount[model.TruckStatus](r.db.WithContext(ctx).Model(&model.Truck{}).Where("is_active = ?", true), "status")
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yard-service/internal/model"
)

type DriverRepository struct {
	db   *gorm.DB
	lock bool
}

func NewDriverRepository(db *gorm.DB, lock bool) *DriverRepository {
	return &DriverRepository{db: db, lock: lock}
}

func (r *DriverRepository) Create(ctx context.Context, profile *model.DriverProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
}

func (r *DriverRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DriverProfile, error) {
	var profile model.DriverProfile
	if err := first(r.db.WithContext(ctx), r.lock, &profile, "user_id = ?", userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *DriverRepository) GetByLicense(ctx context.Context, licenseNumber string) (*model.DriverProfile, error) {
	var profile model.DriverProfile
	if err := first(r.db.WithContext(ctx), false, &profile, "license_number = ?", licenseNumber); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *DriverRepository) Update(ctx context.Context, profile *model.DriverProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *DriverRepository) filtered(ctx context.Context, filter DriverFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.DriverProfile{}).Where("is_active = ?", true)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AvailableOnly {
		query = query.Where("status = ? AND current_truck_id IS NULL", model.DriverStatusAvailable)
	}
	return query
}

func (r *DriverRepository) List(ctx context.Context, filter DriverFilter) ([]model.DriverProfile, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []model.DriverProfile
	err := filter.Pagination.apply(r.filtered(ctx, filter)).
		Preload("User").
		Order("created_at DESC").
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *DriverRepository) CountByStatus(ctx context.Context) (map[model.DriverStatus]int64, error) {
	return groupCount[model.DriverStatus](r.db.WithContext(ctx).Model(&model.DriverProfile{}).Where("is_active = ?", true), "status")
}

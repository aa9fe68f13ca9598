package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yard-service/internal/model"
)

type LoadingBayRepository struct {
	db   *gorm.DB
	lock bool
}

func NewLoadingBayRepository(db *gorm.DB, lock bool) *LoadingBayRepository {
	return &LoadingBayRepository{db: db, lock: lock}
}

func (r *LoadingBayRepository) Create(ctx context.Context, bay *model.LoadingBay) error {
	return r.db.WithContext(ctx).Create(bay).Error
}

func (r *LoadingBayRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LoadingBay, error) {
	var bay model.LoadingBay
	if err := first(r.db.WithContext(ctx), r.lock, &bay, "id = ?", id); err != nil {
		return nil, err
	}
	return &bay, nil
}

func (r *LoadingBayRepository) GetByNumber(ctx context.Context, bayNumber string) (*model.LoadingBay, error) {
	var bay model.LoadingBay
	if err := first(r.db.WithContext(ctx), false, &bay, "bay_number = ?", bayNumber); err != nil {
		return nil, err
	}
	return &bay, nil
}

func (r *LoadingBayRepository) Update(ctx context.Context, bay *model.LoadingBay) error {
	return r.db.WithContext(ctx).Save(bay).Error
}

func (r *LoadingBayRepository) List(ctx context.Context, filter BayFilter) ([]model.LoadingBay, error) {
	query := r.db.WithContext(ctx).Model(&model.LoadingBay{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var bays []model.LoadingBay
	if err := query.Order("bay_number ASC").Find(&bays).Error; err != nil {
		return nil, err
	}
	return bays, nil
}

func (r *LoadingBayRepository) CountByStatus(ctx context.Context) (map[model.BayStatus]int64, error) {
	return groupCount[model.BayStatus](r.db.WithContext(ctx).Model(&model.LoadingBay{}).Where("is_active = ?", true), "status")
}

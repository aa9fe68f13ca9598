package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yard-service/internal/model"
)

type UserRepository struct {
	db   *gorm.DB
	lock bool
}

func NewUserRepository(db *gorm.DB, lock bool) *UserRepository {
	return &UserRepository{db: db, lock: lock}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := first(r.db.WithContext(ctx), r.lock, &user, "id = ?", id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := first(r.db.WithContext(ctx), r.lock, &user, "email = ?", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Department != nil {
		query = query.Where("department = ?", *filter.Department)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := filter.Pagination.apply(r.filtered(ctx, filter)).Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) ListActiveByRoles(ctx context.Context, roles []model.Role) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role IN ? AND is_active = ?", roles, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	return groupCount[model.Role](r.db.WithContext(ctx).Model(&model.User{}), "role")
}

func (r *UserRepository) CountByDepartment(ctx context.Context) (map[model.Department]int64, error) {
	return groupCount[model.Department](r.db.WithContext(ctx).Model(&model.User{}), "department")
}

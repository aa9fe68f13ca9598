package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yard-service/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	ListActiveByRoles(ctx context.Context, roles []model.Role) ([]model.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
	CountByDepartment(ctx context.Context) (map[model.Department]int64, error)
}

type DriverStore interface {
	Create(ctx context.Context, profile *model.DriverProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DriverProfile, error)
	GetByLicense(ctx context.Context, licenseNumber string) (*model.DriverProfile, error)
	Update(ctx context.Context, profile *model.DriverProfile) error
	List(ctx context.Context, filter DriverFilter) ([]model.DriverProfile, int64, error)
	CountByStatus(ctx context.Context) (map[model.DriverStatus]int64, error)
}

type TruckStore interface {
	Create(ctx context.Context, truck *model.Truck) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Truck, error)
	// FindDuplicate returns a truck holding either the truck number or the plate number.
	FindDuplicate(ctx context.Context, truckNumber, plateNumber string) (*model.Truck, error)
	Update(ctx context.Context, truck *model.Truck) error
	List(ctx context.Context, filter TruckFilter) ([]model.Truck, int64, error)
	CountByStatus(ctx context.Context) (map[model.TruckStatus]int64, error)
}

type RequestStore interface {
	Create(ctx context.Context, request *model.TruckRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TruckRequest, error)
	Update(ctx context.Context, request *model.TruckRequest) error
	List(ctx context.Context, filter RequestFilter) ([]model.TruckRequest, int64, error)
	Count(ctx context.Context, filter RequestFilter) (int64, error)
	CountByStatus(ctx context.Context, filter RequestFilter) (map[model.RequestStatus]int64, error)
	CountByPriority(ctx context.Context, filter RequestFilter) (map[model.Priority]int64, error)
}

type BayStore interface {
	Create(ctx context.Context, bay *model.LoadingBay) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LoadingBay, error)
	GetByNumber(ctx context.Context, bayNumber string) (*model.LoadingBay, error)
	Update(ctx context.Context, bay *model.LoadingBay) error
	List(ctx context.Context, filter BayFilter) ([]model.LoadingBay, error)
	CountByStatus(ctx context.Context) (map[model.BayStatus]int64, error)
}

type MovementStore interface {
	Create(ctx context.Context, movement *model.YardMovement) error
	List(ctx context.Context, filter MovementFilter) ([]model.YardMovement, int64, error)
	CountByType(ctx context.Context, filter MovementFilter) (map[model.MovementType]int64, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	Update(ctx context.Context, notification *model.Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter NotificationFilter) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error)
}

// TxFunc runs fn against a Repository bound to a single transaction.
type TxFunc func(ctx context.Context, fn func(repo *Repository) error) error

// Repository groups the entity stores. Stores obtained inside Transaction share one
// database transaction and lock the rows they read by id.
type Repository struct {
	Users         UserStore
	Drivers       DriverStore
	Trucks        TruckStore
	Requests      RequestStore
	Bays          BayStore
	Movements     MovementStore
	Notifications NotificationStore

	tx TxFunc
}

func New(db *gorm.DB) *Repository {
	repo := newRepository(db, false)
	repo.tx = func(ctx context.Context, fn func(repo *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newRepository(tx, true))
		})
	}
	return repo
}

func newRepository(db *gorm.DB, lock bool) *Repository {
	return &Repository{
		Users:         NewUserRepository(db, lock),
		Drivers:       NewDriverRepository(db, lock),
		Trucks:        NewTruckRepository(db, lock),
		Requests:      NewTruckRequestRepository(db, lock),
		Bays:          NewLoadingBayRepository(db, lock),
		Movements:     NewMovementRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// WithTransactor returns a copy of r whose Transaction delegates to tx.
func (r *Repository) WithTransactor(tx TxFunc) *Repository {
	clone := *r
	clone.tx = tx
	return &clone
}

// Transaction runs fn atomically. Without a transactor fn runs directly against r.
func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx(ctx, fn)
}

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) apply(q *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return q
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * p.Limit).Limit(p.Limit)
}

type UserFilter struct {
	Role       *model.Role
	Department *model.Department
	IsActive   *bool
	Pagination
}

type DriverFilter struct {
	Status        *model.DriverStatus
	AvailableOnly bool
	Pagination
}

type TruckFilter struct {
	Status        *model.TruckStatus
	Type          *model.TruckType
	AvailableOnly bool
	Pagination
}

type RequestFilter struct {
	RequesterID    *uuid.UUID
	DriverID       *uuid.UUID
	AssignedBy     *uuid.UUID
	Statuses       []model.RequestStatus
	Priority       *model.Priority
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	RequiredBefore *time.Time
	UpdatedFrom    *time.Time
	// SortByPriority orders by priority rank descending, then oldest first.
	SortByPriority bool
	Pagination
}

type BayFilter struct {
	Status   *model.BayStatus
	IsActive *bool
}

type MovementFilter struct {
	SwitcherID     *uuid.UUID
	TruckID        *uuid.UUID
	TruckRequestID *uuid.UUID
	MovementType   *model.MovementType
	From           *time.Time
	To             *time.Time
	Pagination
}

type NotificationFilter struct {
	RecipientID uuid.UUID
	IsRead      *bool
	Type        *model.NotificationType
	Pagination
}

func first(db *gorm.DB, lock bool, dest interface{}, query string, args ...interface{}) error {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.Where(query, args...).First(dest).Error
}

type groupRow struct {
	GroupKey string
	Total    int64
}

func groupCount[K ~string](q *gorm.DB, column string) (map[K]int64, error) {
	var rows []groupRow
	err := q.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[K]int64, len(rows))
	for _, row := range rows {
		counts[K(row.GroupKey)] = row.Total
	}
	return counts, nil
}

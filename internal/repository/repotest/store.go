// Package repotest provides an in-memory implementation of the repository stores for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
)

// Store keeps every entity in memory. Transactions snapshot the whole state and
// restore it when the transaction function returns an error.
type Store struct {
	mu            sync.Mutex
	clock         time.Time
	users         map[uuid.UUID]model.User
	drivers       map[uuid.UUID]model.DriverProfile
	trucks        map[uuid.UUID]model.Truck
	requests      map[uuid.UUID]model.TruckRequest
	bays          map[uuid.UUID]model.LoadingBay
	movements     []model.YardMovement
	notifications map[uuid.UUID]model.Notification
	failures      map[string]error
}

func New() *Store {
	return &Store{
		clock:         time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		users:         map[uuid.UUID]model.User{},
		drivers:       map[uuid.UUID]model.DriverProfile{},
		trucks:        map[uuid.UUID]model.Truck{},
		requests:      map[uuid.UUID]model.TruckRequest{},
		bays:          map[uuid.UUID]model.LoadingBay{},
		notifications: map[uuid.UUID]model.Notification{},
		failures:      map[string]error{},
	}
}

// Repository returns a repository backed by s with snapshot transactions.
func (s *Store) Repository() *repository.Repository {
	repo := &repository.Repository{
		Users:         &userStore{s},
		Drivers:       &driverStore{s},
		Trucks:        &truckStore{s},
		Requests:      &requestStore{s},
		Bays:          &bayStore{s},
		Movements:     &movementStore{s},
		Notifications: &notificationStore{s},
	}
	return repo.WithTransactor(func(ctx context.Context, fn func(repo *repository.Repository) error) error {
		snap := s.snapshot()
		if err := fn(repo); err != nil {
			s.restore(snap)
			return err
		}
		return nil
	})
}

// FailOn makes every call of op return err until cleared with a nil err.
// Ops are named "<store>.<method>", e.g. "trucks.update" or "notifications.create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) Movements() []model.YardMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.YardMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) NotificationsFor(recipientID uuid.UUID) []model.Notification {
	var out []model.Notification
	for _, n := range s.Notifications() {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

type snapshot struct {
	users         map[uuid.UUID]model.User
	drivers       map[uuid.UUID]model.DriverProfile
	trucks        map[uuid.UUID]model.Truck
	requests      map[uuid.UUID]model.TruckRequest
	bays          map[uuid.UUID]model.LoadingBay
	movements     []model.YardMovement
	notifications map[uuid.UUID]model.Notification
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:         cloneMap(s.users),
		drivers:       cloneMap(s.drivers),
		trucks:        cloneMap(s.trucks),
		requests:      cloneMap(s.requests),
		bays:          cloneMap(s.bays),
		notifications: cloneMap(s.notifications),
	}
	snap.movements = append([]model.YardMovement(nil), s.movements...)
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.drivers = snap.drivers
	s.trucks = snap.trucks
	s.requests = snap.requests
	s.bays = snap.bays
	s.movements = snap.movements
	s.notifications = snap.notifications
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

// tick must be called with s.mu held; it keeps creation order deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func paginate[T any](items []T, p repository.Pagination) []T {
	if p.Limit <= 0 {
		return items
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * p.Limit
	if start >= len(items) {
		return nil
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type userStore struct{ s *Store }

func (u *userStore) Create(ctx context.Context, user *model.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.create"); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = user.BeforeCreate(nil)
	_ = user.BeforeSave(nil)
	if err := checkUser(user); err != nil {
		return err
	}
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (u *userStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (u *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			out := cloneUser(user)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (u *userStore) Update(ctx context.Context, user *model.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.update"); err != nil {
		return err
	}
	_ = user.BeforeSave(nil)
	if err := checkUser(user); err != nil {
		return err
	}
	user.UpdatedAt = s.tick()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (u *userStore) match(user model.User, f repository.UserFilter) bool {
	if f.Role != nil && user.Role != *f.Role {
		return false
	}
	if f.Department != nil && user.Department != *f.Department {
		return false
	}
	if f.IsActive != nil && user.IsActive != *f.IsActive {
		return false
	}
	return true
}

func (u *userStore) List(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, user := range s.users {
		if u.match(user, filter) {
			out = append(out, cloneUser(user))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (u *userStore) ListActiveByRoles(ctx context.Context, roles []model.Role) ([]model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("users.list_active_by_roles"); err != nil {
		return nil, err
	}
	var out []model.User
	for _, user := range s.users {
		if !user.IsActive {
			continue
		}
		for _, role := range roles {
			if user.Role == role {
				out = append(out, cloneUser(user))
				break
			}
		}
	}
	return out, nil
}

func (u *userStore) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	_, total, err := u.List(ctx, filter)
	return total, err
}

func (u *userStore) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	users, _, _ := u.List(ctx, repository.UserFilter{})
	counts := map[model.Role]int64{}
	for _, user := range users {
		counts[user.Role]++
	}
	return counts, nil
}

func (u *userStore) CountByDepartment(ctx context.Context) (map[model.Department]int64, error) {
	users, _, _ := u.List(ctx, repository.UserFilter{})
	counts := map[model.Department]int64{}
	for _, user := range users {
		counts[user.Department]++
	}
	return counts, nil
}

func cloneUser(user model.User) model.User {
	if user.DeviceTokens != nil {
		user.DeviceTokens = append(pq.StringArray{}, user.DeviceTokens...)
	}
	return user
}

// checkUser mirrors the NOT NULL columns of the users table.
func checkUser(user *model.User) error {
	if user.DeviceTokens == nil {
		return errors.New(`null value in column "device_tokens" violates not-null constraint`)
	}
	return nil
}

type driverStore struct{ s *Store }

func (d *driverStore) Create(ctx context.Context, profile *model.DriverProfile) error {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("drivers.create"); err != nil {
		return err
	}
	for _, existing := range s.drivers {
		if existing.UserID == profile.UserID || existing.LicenseNumber == profile.LicenseNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = profile.BeforeCreate(nil)
	profile.CreatedAt = s.tick()
	profile.UpdatedAt = profile.CreatedAt
	stored := *profile
	stored.User = nil
	s.drivers[profile.ID] = stored
	return nil
}

func (d *driverStore) find(pred func(model.DriverProfile) bool) (*model.DriverProfile, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.drivers {
		if pred(profile) {
			out := profile
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *driverStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DriverProfile, error) {
	return d.find(func(p model.DriverProfile) bool { return p.UserID == userID })
}

func (d *driverStore) GetByLicense(ctx context.Context, licenseNumber string) (*model.DriverProfile, error) {
	return d.find(func(p model.DriverProfile) bool { return p.LicenseNumber == licenseNumber })
}

func (d *driverStore) Update(ctx context.Context, profile *model.DriverProfile) error {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("drivers.update"); err != nil {
		return err
	}
	profile.UpdatedAt = s.tick()
	stored := *profile
	stored.User = nil
	s.drivers[profile.ID] = stored
	return nil
}

func (d *driverStore) List(ctx context.Context, filter repository.DriverFilter) ([]model.DriverProfile, int64, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DriverProfile
	for _, profile := range s.drivers {
		if !profile.IsActive {
			continue
		}
		if filter.Status != nil && profile.Status != *filter.Status {
			continue
		}
		if filter.AvailableOnly && (profile.Status != model.DriverStatusAvailable || profile.CurrentTruckID != nil) {
			continue
		}
		if user, ok := s.users[profile.UserID]; ok {
			u := cloneUser(user)
			profile.User = &u
		}
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (d *driverStore) CountByStatus(ctx context.Context) (map[model.DriverStatus]int64, error) {
	profiles, _, _ := d.List(ctx, repository.DriverFilter{})
	counts := map[model.DriverStatus]int64{}
	for _, p := range profiles {
		counts[p.Status]++
	}
	return counts, nil
}

type truckStore struct{ s *Store }

func (t *truckStore) Create(ctx context.Context, truck *model.Truck) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("trucks.create"); err != nil {
		return err
	}
	for _, existing := range s.trucks {
		if existing.TruckNumber == truck.TruckNumber || existing.PlateNumber == truck.PlateNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = truck.BeforeCreate(nil)
	truck.CreatedAt = s.tick()
	truck.UpdatedAt = truck.CreatedAt
	s.trucks[truck.ID] = *truck
	return nil
}

func (t *truckStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Truck, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	truck, ok := s.trucks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &truck, nil
}

func (t *truckStore) FindDuplicate(ctx context.Context, truckNumber, plateNumber string) (*model.Truck, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, truck := range s.trucks {
		if truck.TruckNumber == truckNumber || truck.PlateNumber == plateNumber {
			out := truck
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (t *truckStore) Update(ctx context.Context, truck *model.Truck) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("trucks.update"); err != nil {
		return err
	}
	truck.UpdatedAt = s.tick()
	s.trucks[truck.ID] = *truck
	return nil
}

func (t *truckStore) List(ctx context.Context, filter repository.TruckFilter) ([]model.Truck, int64, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Truck
	for _, truck := range s.trucks {
		if !truck.IsActive {
			continue
		}
		if filter.Status != nil && truck.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && truck.Type != *filter.Type {
			continue
		}
		if filter.AvailableOnly && (truck.Status != model.TruckStatusAvailable || truck.AssignedDriverID != nil) {
			continue
		}
		out = append(out, truck)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TruckNumber < out[j].TruckNumber })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (t *truckStore) CountByStatus(ctx context.Context) (map[model.TruckStatus]int64, error) {
	trucks, _, _ := t.List(ctx, repository.TruckFilter{})
	counts := map[model.TruckStatus]int64{}
	for _, truck := range trucks {
		counts[truck.Status]++
	}
	return counts, nil
}

type requestStore struct{ s *Store }

func (r *requestStore) Create(ctx context.Context, request *model.TruckRequest) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("requests.create"); err != nil {
		return err
	}
	_ = request.BeforeCreate(nil)
	_ = request.BeforeSave(nil)
	request.CreatedAt = s.tick()
	request.UpdatedAt = request.CreatedAt
	stored := *request
	stored.AssignedTruck = nil
	s.requests[request.ID] = stored
	return nil
}

func (r *requestStore) GetByID(ctx context.Context, id uuid.UUID) (*model.TruckRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	_ = request.AfterFind(nil)
	return &request, nil
}

func (r *requestStore) Update(ctx context.Context, request *model.TruckRequest) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("requests.update"); err != nil {
		return err
	}
	_ = request.BeforeSave(nil)
	request.UpdatedAt = s.tick()
	stored := *request
	stored.AssignedTruck = nil
	s.requests[request.ID] = stored
	return nil
}

func (r *requestStore) match(req model.TruckRequest, f repository.RequestFilter) bool {
	if f.RequesterID != nil && req.RequesterID != *f.RequesterID {
		return false
	}
	if f.DriverID != nil && (req.AssignedDriverID == nil || *req.AssignedDriverID != *f.DriverID) {
		return false
	}
	if f.AssignedBy != nil && (req.AssignedBy == nil || *req.AssignedBy != *f.AssignedBy) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, status := range f.Statuses {
			if req.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Priority != nil && req.Priority != *f.Priority {
		return false
	}
	if f.CreatedFrom != nil && req.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !req.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if f.RequiredBefore != nil && (req.RequiredTime == nil || !req.RequiredTime.Before(*f.RequiredBefore)) {
		return false
	}
	if f.UpdatedFrom != nil && req.UpdatedAt.Before(*f.UpdatedFrom) {
		return false
	}
	return true
}

func (r *requestStore) List(ctx context.Context, filter repository.RequestFilter) ([]model.TruckRequest, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TruckRequest
	for _, req := range s.requests {
		if r.match(req, filter) {
			_ = req.AfterFind(nil)
			out = append(out, req)
		}
	}
	if filter.SortByPriority {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Priority.Rank() != out[j].Priority.Rank() {
				return out[i].Priority.Rank() > out[j].Priority.Rank()
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (r *requestStore) Count(ctx context.Context, filter repository.RequestFilter) (int64, error) {
	filter.Pagination = repository.Pagination{}
	_, total, err := r.List(ctx, filter)
	return total, err
}

func (r *requestStore) CountByStatus(ctx context.Context, filter repository.RequestFilter) (map[model.RequestStatus]int64, error) {
	filter.Pagination = repository.Pagination{}
	requests, _, _ := r.List(ctx, filter)
	counts := map[model.RequestStatus]int64{}
	for _, req := range requests {
		counts[req.Status]++
	}
	return counts, nil
}

func (r *requestStore) CountByPriority(ctx context.Context, filter repository.RequestFilter) (map[model.Priority]int64, error) {
	filter.Pagination = repository.Pagination{}
	requests, _, _ := r.List(ctx, filter)
	counts := map[model.Priority]int64{}
	for _, req := range requests {
		counts[req.Priority]++
	}
	return counts, nil
}

type bayStore struct{ s *Store }

func (b *bayStore) Create(ctx context.Context, bay *model.LoadingBay) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("bays.create"); err != nil {
		return err
	}
	for _, existing := range s.bays {
		if existing.BayNumber == bay.BayNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = bay.BeforeCreate(nil)
	_ = bay.BeforeSave(nil)
	bay.CreatedAt = s.tick()
	bay.UpdatedAt = bay.CreatedAt
	stored := *bay
	stored.CurrentTruck = nil
	s.bays[bay.ID] = stored
	return nil
}

func (b *bayStore) GetByID(ctx context.Context, id uuid.UUID) (*model.LoadingBay, error) {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	bay, ok := s.bays[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	_ = bay.AfterFind(nil)
	return &bay, nil
}

func (b *bayStore) GetByNumber(ctx context.Context, bayNumber string) (*model.LoadingBay, error) {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bay := range s.bays {
		if bay.BayNumber == bayNumber {
			_ = bay.AfterFind(nil)
			return &bay, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (b *bayStore) Update(ctx context.Context, bay *model.LoadingBay) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("bays.update"); err != nil {
		return err
	}
	_ = bay.BeforeSave(nil)
	bay.UpdatedAt = s.tick()
	stored := *bay
	stored.CurrentTruck = nil
	s.bays[bay.ID] = stored
	return nil
}

func (b *bayStore) List(ctx context.Context, filter repository.BayFilter) ([]model.LoadingBay, error) {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LoadingBay
	for _, bay := range s.bays {
		if filter.Status != nil && bay.Status != *filter.Status {
			continue
		}
		if filter.IsActive != nil && bay.IsActive != *filter.IsActive {
			continue
		}
		_ = bay.AfterFind(nil)
		out = append(out, bay)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BayNumber < out[j].BayNumber })
	return out, nil
}

func (b *bayStore) CountByStatus(ctx context.Context) (map[model.BayStatus]int64, error) {
	active := true
	bays, _ := b.List(ctx, repository.BayFilter{IsActive: &active})
	counts := map[model.BayStatus]int64{}
	for _, bay := range bays {
		counts[bay.Status]++
	}
	return counts, nil
}

type movementStore struct{ s *Store }

func (m *movementStore) Create(ctx context.Context, movement *model.YardMovement) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("movements.create"); err != nil {
		return err
	}
	now := s.tick()
	if movement.ActualTime.IsZero() {
		movement.ActualTime = now
	}
	_ = movement.BeforeCreate(nil)
	movement.CreatedAt = now
	s.movements = append(s.movements, *movement)
	return nil
}

func (m *movementStore) match(mv model.YardMovement, f repository.MovementFilter) bool {
	if f.SwitcherID != nil && mv.SwitcherID != *f.SwitcherID {
		return false
	}
	if f.TruckID != nil && (mv.TruckID == nil || *mv.TruckID != *f.TruckID) {
		return false
	}
	if f.TruckRequestID != nil && mv.TruckRequestID != *f.TruckRequestID {
		return false
	}
	if f.MovementType != nil && mv.MovementType != *f.MovementType {
		return false
	}
	if f.From != nil && mv.ActualTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !mv.ActualTime.Before(*f.To) {
		return false
	}
	return true
}

func (m *movementStore) List(ctx context.Context, filter repository.MovementFilter) ([]model.YardMovement, int64, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.YardMovement
	for _, mv := range s.movements {
		if m.match(mv, filter) {
			out = append(out, mv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ActualTime.After(out[j].ActualTime) })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (m *movementStore) CountByType(ctx context.Context, filter repository.MovementFilter) (map[model.MovementType]int64, error) {
	filter.Pagination = repository.Pagination{}
	movements, _, _ := m.List(ctx, filter)
	counts := map[model.MovementType]int64{}
	for _, mv := range movements {
		counts[mv.MovementType]++
	}
	return counts, nil
}

type notificationStore struct{ s *Store }

func (n *notificationStore) Create(ctx context.Context, notification *model.Notification) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("notifications.create"); err != nil {
		return err
	}
	_ = notification.BeforeCreate(nil)
	notification.CreatedAt = s.tick()
	s.notifications[notification.ID] = *notification
	return nil
}

func (n *notificationStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &notification, nil
}

func (n *notificationStore) Update(ctx context.Context, notification *model.Notification) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[notification.ID] = *notification
	return nil
}

func (n *notificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (n *notificationStore) List(ctx context.Context, filter repository.NotificationFilter) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, item := range n.s.NotificationsFor(filter.RecipientID) {
		if filter.IsRead != nil && item.IsRead != *filter.IsRead {
			continue
		}
		if filter.Type != nil && item.Type != *filter.Type {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (n *notificationStore) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	unread := false
	_, total, err := n.List(ctx, repository.NotificationFilter{RecipientID: recipientID, IsRead: &unread})
	return total, err
}

func (n *notificationStore) MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error) {
	s := n.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for id, item := range s.notifications {
		if item.RecipientID == recipientID && !item.IsRead {
			item.MarkRead(at)
			s.notifications[id] = item
			modified++
		}
	}
	return modified, nil
}

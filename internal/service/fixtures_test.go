package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yard-service/internal/model"
	"yard-service/internal/repository"
	"yard-service/internal/repository/repotest"
)

var testNow = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *repotest.Store
	repo     *repository.Repository
	notifier *Notifier
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	repo := store.Repository()
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		repo:     repo,
		notifier: NewNotifier(repo, zerolog.Nop(), 2),
	}
}

func (f *fixture) requests() *RequestService {
	svc := NewRequestService(f.repo, f.notifier)
	svc.now = fixedNow
	return svc
}

func (f *fixture) yard() *YardService {
	svc := NewYardService(f.repo, f.notifier)
	svc.now = fixedNow
	return svc
}

func (f *fixture) reports() *ReportService {
	svc := NewReportService(f.repo, zerolog.Nop())
	svc.now = fixedNow
	return svc
}

func (f *fixture) next() int {
	f.seq++
	return f.seq
}

func (f *fixture) user(role model.Role) model.Principal {
	f.t.Helper()
	n := f.next()
	user := &model.User{
		Name:       fmt.Sprintf("%s %d", role, n),
		Email:      fmt.Sprintf("%s%d@yard.test", role, n),
		Role:       role,
		Department: model.DepartmentLoading,
		IsActive:   true,
	}
	if err := f.repo.Users.Create(f.ctx, user); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return model.NewPrincipal(user)
}

// driver creates a driver user with an available profile.
func (f *fixture) driver() model.Principal {
	f.t.Helper()
	p := f.user(model.RoleDriver)
	profile := &model.DriverProfile{
		UserID:        p.UserID,
		LicenseNumber: fmt.Sprintf("LIC-%d", f.next()),
		LicenseExpiry: testNow.AddDate(2, 0, 0),
		LicenseType:   model.LicenseTypeHMV,
		Phone:         "+1000000",
		Status:        model.DriverStatusAvailable,
		IsActive:      true,
	}
	if err := f.repo.Drivers.Create(f.ctx, profile); err != nil {
		f.t.Fatalf("create driver profile: %v", err)
	}
	return p
}

func (f *fixture) truck() *model.Truck {
	f.t.Helper()
	n := f.next()
	truck := &model.Truck{
		TruckNumber: fmt.Sprintf("TRK-%03d", n),
		PlateNumber: fmt.Sprintf("AB%03dCD", n),
		Capacity:    20,
		Type:        model.TruckTypeContainer,
		Status:      model.TruckStatusAvailable,
		IsActive:    true,
	}
	if err := f.repo.Trucks.Create(f.ctx, truck); err != nil {
		f.t.Fatalf("create truck: %v", err)
	}
	return truck
}

func (f *fixture) bay() *model.LoadingBay {
	f.t.Helper()
	n := f.next()
	bay := &model.LoadingBay{
		BayNumber: fmt.Sprintf("B%d", n),
		BayName:   fmt.Sprintf("Bay %d", n),
		Location:  "North dock",
		Status:    model.BayStatusAvailable,
		IsActive:  true,
	}
	if err := f.repo.Bays.Create(f.ctx, bay); err != nil {
		f.t.Fatalf("create bay: %v", err)
	}
	return bay
}

func (f *fixture) request(requester model.Principal, priority model.Priority) *model.TruckRequest {
	f.t.Helper()
	request := &model.TruckRequest{
		RequesterID:      requester.UserID,
		LoadID:           fmt.Sprintf("LOAD-%d", f.next()),
		LoadDescription:  "Palletised goods",
		Priority:         priority,
		PickupLocation:   "Dock A",
		DeliveryLocation: "Warehouse 7",
		Status:           model.RequestStatusPending,
	}
	if err := f.repo.Requests.Create(f.ctx, request); err != nil {
		f.t.Fatalf("create request: %v", err)
	}
	return request
}

// assigned returns a request already bound to a fresh truck and driver.
func (f *fixture) assigned(requester, dispatcher model.Principal) (*model.TruckRequest, *model.Truck, model.Principal) {
	f.t.Helper()
	request := f.request(requester, model.PriorityNormal)
	truck := f.truck()
	driver := f.driver()
	out, err := f.requests().Assign(f.ctx, dispatcher, request.ID.String(), AssignTruckInput{
		TruckID:  truck.ID.String(),
		DriverID: driver.UserID.String(),
	})
	if err != nil {
		f.t.Fatalf("assign: %v", err)
	}
	return out, truck, driver
}

func (f *fixture) mustRequest(id uuid.UUID) *model.TruckRequest {
	f.t.Helper()
	request, err := f.repo.Requests.GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get request: %v", err)
	}
	return request
}

func (f *fixture) mustTruck(id uuid.UUID) *model.Truck {
	f.t.Helper()
	truck, err := f.repo.Trucks.GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get truck: %v", err)
	}
	return truck
}

func (f *fixture) mustDriver(userID uuid.UUID) *model.DriverProfile {
	f.t.Helper()
	profile, err := f.repo.Drivers.GetByUserID(f.ctx, userID)
	if err != nil {
		f.t.Fatalf("get driver: %v", err)
	}
	return profile
}

func (f *fixture) mustBay(id uuid.UUID) *model.LoadingBay {
	f.t.Helper()
	bay, err := f.repo.Bays.GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get bay: %v", err)
	}
	return bay
}

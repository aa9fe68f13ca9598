package service

import (
	"errors"
	"testing"

	"yard-service/internal/model"
)

func TestFleetService_CreateTruck(t *testing.T) {
	f := newFixture(t)
	svc := NewFleetService(f.repo)
	admin := f.user(model.RoleAdmin)

	truck, err := svc.CreateTruck(f.ctx, admin, CreateTruckInput{
		TruckNumber:    " trk 7 ",
		PlateNumber:    "ab-123 cd",
		Capacity:       18.5,
		Type:           "Flatbed",
		Specifications: model.TruckSpecifications{FuelType: model.FuelTypeDiesel},
	})
	if err != nil {
		t.Fatalf("CreateTruck: %v", err)
	}
	if truck.TruckNumber != "TRK 7" || truck.PlateNumber != "AB123CD" {
		t.Errorf("identifiers not normalised: %q %q", truck.TruckNumber, truck.PlateNumber)
	}
	if truck.Status != model.TruckStatusAvailable || !truck.IsActive || truck.Type != model.TruckTypeFlatbed {
		t.Errorf("unexpected truck: %+v", truck)
	}

	_, err = svc.CreateTruck(f.ctx, admin, CreateTruckInput{
		TruckNumber: "TRK 8", PlateNumber: "AB 123 CD", Capacity: 10, Type: "van",
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate plate: expected ErrConflict, got %v", err)
	}

	_, err = svc.CreateTruck(f.ctx, admin, CreateTruckInput{TruckNumber: "TRK 9", PlateNumber: "X1", Capacity: 0, Type: "van"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero capacity: expected ErrInvalidInput, got %v", err)
	}
}

func TestFleetService_ListTrucks(t *testing.T) {
	f := newFixture(t)
	svc := NewFleetService(f.repo)
	dispatcher := f.user(model.RoleDispatcher)
	f.truck()
	broken := f.truck()
	broken.Status = model.TruckStatusMaintenance
	if err := f.repo.Trucks.Update(f.ctx, broken); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListTrucks(f.ctx, dispatcher, ListTrucksInput{AvailableOnly: true})
	if err != nil {
		t.Fatalf("ListTrucks: %v", err)
	}
	if len(list.Trucks) != 1 {
		t.Errorf("expected 1 available truck, got %d", len(list.Trucks))
	}
	if list.Stats.Total != 2 || list.Stats.Maintenance != 1 || list.Stats.Available != 1 {
		t.Errorf("unexpected stats: %+v", list.Stats)
	}

	if _, err := svc.ListTrucks(f.ctx, f.user(model.RoleLoader), ListTrucksInput{}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestFleetService_CreateDriver(t *testing.T) {
	f := newFixture(t)
	svc := NewFleetService(f.repo)
	supervisor := f.user(model.RoleSupervisor)
	driverUser := f.user(model.RoleDriver)
	loader := f.user(model.RoleLoader)

	input := CreateDriverInput{
		UserID:        driverUser.UserID.String(),
		LicenseNumber: "dl 0042",
		LicenseExpiry: "2028-06-30",
		LicenseType:   "hmv",
		Phone:         "+15550100",
	}
	profile, err := svc.CreateDriver(f.ctx, supervisor, input)
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}
	if profile.LicenseNumber != "DL 0042" || profile.LicenseType != model.LicenseTypeHMV || profile.Status != model.DriverStatusAvailable {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if profile.User == nil || profile.User.ID != driverUser.UserID {
		t.Error("profile should embed its user")
	}

	if _, err := svc.CreateDriver(f.ctx, supervisor, input); !errors.Is(err, ErrConflict) {
		t.Errorf("second profile: expected ErrConflict, got %v", err)
	}

	other := f.user(model.RoleDriver)
	reused := input
	reused.UserID = other.UserID.String()
	if _, err := svc.CreateDriver(f.ctx, supervisor, reused); !errors.Is(err, ErrConflict) {
		t.Errorf("reused license: expected ErrConflict, got %v", err)
	}

	wrongRole := input
	wrongRole.UserID = loader.UserID.String()
	wrongRole.LicenseNumber = "DL 0099"
	if _, err := svc.CreateDriver(f.ctx, supervisor, wrongRole); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("non-driver user: expected ErrInvalidInput, got %v", err)
	}
}

func TestFleetService_ListDrivers(t *testing.T) {
	f := newFixture(t)
	svc := NewFleetService(f.repo)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	f.driver()
	f.assigned(loader, dispatcher)

	list, err := svc.ListDrivers(f.ctx, dispatcher, ListDriversInput{AvailableOnly: true})
	if err != nil {
		t.Fatalf("ListDrivers: %v", err)
	}
	if len(list.Drivers) != 1 || list.Drivers[0].User == nil {
		t.Errorf("expected 1 available driver with user, got %+v", list.Drivers)
	}
	if list.Stats.Total != 2 || list.Stats.Assigned != 1 {
		t.Errorf("unexpected stats: %+v", list.Stats)
	}
}

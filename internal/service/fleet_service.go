package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
	"yard-service/internal/utils"
)

const defaultFleetPageLimit = 20

// FleetService manages trucks and driver profiles.
type FleetService struct {
	repo *repository.Repository
}

func NewFleetService(repo *repository.Repository) *FleetService {
	return &FleetService{repo: repo}
}

type CreateTruckInput struct {
	TruckNumber     string
	PlateNumber     string
	Capacity        float64
	Type            string
	CurrentLocation string
	Specifications  model.TruckSpecifications
}

func (s *FleetService) CreateTruck(ctx context.Context, principal model.Principal, input CreateTruckInput) (*model.Truck, error) {
	if err := Authorize(principal, OpTruckCreate); err != nil {
		return nil, err
	}

	number := utils.NormalizeCode(input.TruckNumber)
	plate := utils.NormalizePlate(input.PlateNumber)
	if number == "" || plate == "" || input.Type == "" {
		return nil, invalidInput("truckNumber, plateNumber, capacity and type are required")
	}
	if input.Capacity <= 0 {
		return nil, invalidInput("capacity must be positive")
	}
	truckType := model.TruckType(strings.ToLower(strings.TrimSpace(input.Type)))
	if !truckType.Valid() {
		return nil, invalidInput("type must be one of container, flatbed, refrigerated, tanker, van")
	}
	if fuel := input.Specifications.FuelType; fuel != "" && !fuel.Valid() {
		return nil, invalidInput("fuelType must be one of diesel, petrol, electric, hybrid")
	}

	if _, err := s.repo.Trucks.FindDuplicate(ctx, number, plate); err == nil {
		return nil, conflict("truck with this number or plate already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	truck := &model.Truck{
		TruckNumber:     number,
		PlateNumber:     plate,
		Capacity:        input.Capacity,
		Type:            truckType,
		Status:          model.TruckStatusAvailable,
		CurrentLocation: strings.TrimSpace(input.CurrentLocation),
		Specifications:  datatypes.NewJSONType(input.Specifications),
		IsActive:        true,
	}
	if err := s.repo.Trucks.Create(ctx, truck); err != nil {
		return nil, createErr(err, "truck with this number or plate already exists")
	}

	return truck, nil
}

type ListTrucksInput struct {
	Status        string
	Type          string
	AvailableOnly bool
	Page          int
	Limit         int
}

type TruckStats struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Assigned    int64 `json:"assigned"`
	Maintenance int64 `json:"maintenance"`
}

type TruckList struct {
	Trucks     []model.Truck `json:"trucks"`
	Pagination Page          `json:"pagination"`
	Stats      TruckStats    `json:"stats"`
}

func (s *FleetService) ListTrucks(ctx context.Context, principal model.Principal, input ListTrucksInput) (*TruckList, error) {
	if err := Authorize(principal, OpTruckList); err != nil {
		return nil, err
	}

	filter := repository.TruckFilter{
		AvailableOnly: input.AvailableOnly,
		Pagination:    pagination(input.Page, input.Limit, defaultFleetPageLimit),
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := model.TruckStatus(strings.ToLower(raw))
		if !status.Valid() {
			return nil, invalidInput("unknown truck status %q", raw)
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(input.Type); raw != "" {
		truckType := model.TruckType(strings.ToLower(raw))
		if !truckType.Valid() {
			return nil, invalidInput("unknown truck type %q", raw)
		}
		filter.Type = &truckType
	}

	trucks, total, err := s.repo.Trucks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Trucks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &TruckList{
		Trucks:     trucks,
		Pagination: newPage(filter.Pagination, total),
		Stats: TruckStats{
			Total:       sum(counts),
			Available:   counts[model.TruckStatusAvailable],
			Assigned:    counts[model.TruckStatusAssigned],
			Maintenance: counts[model.TruckStatusMaintenance],
		},
	}, nil
}

type CreateDriverInput struct {
	UserID           string
	LicenseNumber    string
	LicenseExpiry    string
	LicenseType      string
	Phone            string
	Address          string
	ExperienceYears  int
	EmergencyContact model.EmergencyContact
}

func (s *FleetService) CreateDriver(ctx context.Context, principal model.Principal, input CreateDriverInput) (*model.DriverProfile, error) {
	if err := Authorize(principal, OpDriverCreate); err != nil {
		return nil, err
	}

	license := utils.NormalizeCode(input.LicenseNumber)
	phone := strings.TrimSpace(input.Phone)
	if strings.TrimSpace(input.UserID) == "" || license == "" || strings.TrimSpace(input.LicenseExpiry) == "" ||
		strings.TrimSpace(input.LicenseType) == "" || phone == "" {
		return nil, invalidInput("userId, licenseNumber, licenseExpiry, licenseType and phone are required")
	}
	userID, err := parseID(input.UserID, "userId")
	if err != nil {
		return nil, err
	}
	expiry, err := ParseTime(input.LicenseExpiry)
	if err != nil {
		return nil, invalidInput("licenseExpiry must be a date")
	}
	licenseType := model.LicenseType(strings.ToUpper(strings.TrimSpace(input.LicenseType)))
	if !licenseType.Valid() {
		return nil, invalidInput("licenseType must be one of LMV, HMV, TRANSPORT")
	}
	if input.ExperienceYears < 0 {
		return nil, invalidInput("experienceYears must not be negative")
	}

	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	if user.Role != model.RoleDriver {
		return nil, invalidInput("user must have the driver role")
	}

	if _, err := s.repo.Drivers.GetByUserID(ctx, userID); err == nil {
		return nil, conflict("driver profile already exists for this user")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.Drivers.GetByLicense(ctx, license); err == nil {
		return nil, conflict("license number already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile := &model.DriverProfile{
		UserID:           userID,
		LicenseNumber:    license,
		LicenseExpiry:    expiry,
		LicenseType:      licenseType,
		Phone:            phone,
		EmergencyContact: datatypes.NewJSONType(input.EmergencyContact),
		Address:          strings.TrimSpace(input.Address),
		ExperienceYears:  input.ExperienceYears,
		Status:           model.DriverStatusAvailable,
		IsActive:         true,
	}
	if err := s.repo.Drivers.Create(ctx, profile); err != nil {
		return nil, createErr(err, "driver profile or license already exists")
	}

	profile.User = user
	return profile, nil
}

type ListDriversInput struct {
	Status        string
	AvailableOnly bool
	Page          int
	Limit         int
}

type DriverStats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Assigned  int64 `json:"assigned"`
	OnTrip    int64 `json:"onTrip"`
}

type DriverList struct {
	Drivers    []model.DriverProfile `json:"drivers"`
	Pagination Page                  `json:"pagination"`
	Stats      DriverStats           `json:"stats"`
}

func (s *FleetService) ListDrivers(ctx context.Context, principal model.Principal, input ListDriversInput) (*DriverList, error) {
	if err := Authorize(principal, OpDriverList); err != nil {
		return nil, err
	}

	filter := repository.DriverFilter{
		AvailableOnly: input.AvailableOnly,
		Pagination:    pagination(input.Page, input.Limit, defaultFleetPageLimit),
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := model.DriverStatus(strings.ToLower(raw))
		if !status.Valid() {
			return nil, invalidInput("unknown driver status %q", raw)
		}
		filter.Status = &status
	}

	drivers, total, err := s.repo.Drivers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Drivers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &DriverList{
		Drivers:    drivers,
		Pagination: newPage(filter.Pagination, total),
		Stats: DriverStats{
			Total:     sum(counts),
			Available: counts[model.DriverStatusAvailable],
			Assigned:  counts[model.DriverStatusAssigned],
			OnTrip:    counts[model.DriverStatusOnTrip],
		},
	}, nil
}

func sum[K comparable](counts map[K]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TruckStatus string

const (
	TruckStatusAvailable    TruckStatus = "available"
	TruckStatusAssigned     TruckStatus = "assigned"
	TruckStatusMaintenance  TruckStatus = "maintenance"
	TruckStatusOutOfService TruckStatus = "out_of_service"
)

func (s TruckStatus) Valid() bool {
	switch s {
	case TruckStatusAvailable, TruckStatusAssigned, TruckStatusMaintenance, TruckStatusOutOfService:
		return true
	default:
		return false
	}
}

type TruckType string

const (
	TruckTypeContainer    TruckType = "container"
	TruckTypeFlatbed      TruckType = "flatbed"
	TruckTypeRefrigerated TruckType = "refrigerated"
	TruckTypeTanker       TruckType = "tanker"
	TruckTypeVan          TruckType = "van"
)

func (t TruckType) Valid() bool {
	switch t {
	case TruckTypeContainer, TruckTypeFlatbed, TruckTypeRefrigerated, TruckTypeTanker, TruckTypeVan:
		return true
	default:
		return false
	}
}

type FuelType string

const (
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypePetrol   FuelType = "petrol"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelTypeDiesel, FuelTypePetrol, FuelTypeElectric, FuelTypeHybrid:
		return true
	default:
		return false
	}
}

type TruckSpecifications struct {
	Length   float64  `json:"length,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	FuelType FuelType `json:"fuelType,omitempty"`
}

type Truck struct {
	ID               uuid.UUID                               `gorm:"type:uuid;primaryKey" json:"id"`
	TruckNumber      string                                  `gorm:"not null;uniqueIndex" json:"truckNumber"`
	PlateNumber      string                                  `gorm:"not null;uniqueIndex" json:"plateNumber"`
	Capacity         float64                                 `gorm:"not null" json:"capacity"`
	Type             TruckType                               `gorm:"type:varchar(20);not null" json:"type"`
	Status           TruckStatus                             `gorm:"type:varchar(20);not null" json:"status"`
	CurrentLocation  string                                  `json:"currentLocation,omitempty"`
	AssignedDriverID *uuid.UUID                              `gorm:"type:uuid" json:"assignedDriverId,omitempty"`
	CurrentRequestID *uuid.UUID                              `gorm:"type:uuid" json:"currentRequestId,omitempty"`
	Specifications   datatypes.JSONType[TruckSpecifications] `gorm:"type:jsonb" json:"specifications"`
	IsActive         bool                                    `gorm:"not null" json:"isActive"`
	CreatedAt        time.Time                               `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time                               `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Truck) TableName() string {
	return "trucks"
}

func (t *Truck) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Truck) IsAvailable() bool {
	return t.IsActive && t.Status == TruckStatusAvailable
}

func (t *Truck) Assign(driverID, requestID uuid.UUID) {
	t.Status = TruckStatusAssigned
	t.AssignedDriverID = &driverID
	t.CurrentRequestID = &requestID
}

// Release returns the truck to the available pool unless it was taken out of service meanwhile.
func (t *Truck) Release() {
	if t.Status == TruckStatusAssigned {
		t.Status = TruckStatusAvailable
	}
	t.AssignedDriverID = nil
	t.CurrentRequestID = nil
}

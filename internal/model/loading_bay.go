package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BayStatus string

const (
	BayStatusAvailable   BayStatus = "available"
	BayStatusOccupied    BayStatus = "occupied"
	BayStatusMaintenance BayStatus = "maintenance"
	BayStatusReserved    BayStatus = "reserved"
)

func (s BayStatus) Valid() bool {
	switch s {
	case BayStatusAvailable, BayStatusOccupied, BayStatusMaintenance, BayStatusReserved:
		return true
	default:
		return false
	}
}

type BayTruck struct {
	TruckID            uuid.UUID  `json:"truckId"`
	DriverID           uuid.UUID  `json:"driverId"`
	AssignedAt         time.Time  `json:"assignedAt"`
	EstimatedDeparture *time.Time `json:"estimatedDeparture,omitempty"`
}

// LoadingBay holds at most one truck; CurrentTruck is set iff Status is occupied.
type LoadingBay struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BayNumber    string     `gorm:"not null;uniqueIndex" json:"bayNumber"`
	BayName      string     `gorm:"not null" json:"bayName"`
	Location     string     `gorm:"not null" json:"location"`
	Capacity     int        `gorm:"not null" json:"capacity"`
	Status       BayStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	CurrentTruck *BayTruck  `gorm:"-" json:"currentTruck"`
	AssignedBy   *uuid.UUID `gorm:"type:uuid" json:"assignedBy,omitempty"`
	IsActive     bool       `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	CurrentTruckID     *uuid.UUID `gorm:"type:uuid;column:current_truck_id" json:"-"`
	CurrentDriverID    *uuid.UUID `gorm:"type:uuid;column:current_driver_id" json:"-"`
	OccupiedSince      *time.Time `gorm:"column:occupied_since" json:"-"`
	EstimatedDeparture *time.Time `gorm:"column:estimated_departure" json:"-"`
}

func (LoadingBay) TableName() string {
	return "loading_bays"
}

func (b *LoadingBay) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Capacity == 0 {
		b.Capacity = 1
	}
	return nil
}

func (b *LoadingBay) BeforeSave(tx *gorm.DB) error {
	b.flattenTruck()
	return nil
}

func (b *LoadingBay) AfterFind(tx *gorm.DB) error {
	if b.CurrentTruckID == nil || b.CurrentDriverID == nil {
		b.CurrentTruck = nil
		return nil
	}
	truck := BayTruck{
		TruckID:            *b.CurrentTruckID,
		DriverID:           *b.CurrentDriverID,
		EstimatedDeparture: b.EstimatedDeparture,
	}
	if b.OccupiedSince != nil {
		truck.AssignedAt = *b.OccupiedSince
	}
	b.CurrentTruck = &truck
	return nil
}

func (b *LoadingBay) IsOccupied() bool {
	return b.Status == BayStatusOccupied
}

func (b *LoadingBay) Occupy(truck BayTruck, by uuid.UUID) {
	b.Status = BayStatusOccupied
	b.CurrentTruck = &truck
	b.AssignedBy = &by
	b.flattenTruck()
}

func (b *LoadingBay) Release() {
	b.Status = BayStatusAvailable
	b.CurrentTruck = nil
	b.flattenTruck()
}

func (b *LoadingBay) flattenTruck() {
	if b.CurrentTruck == nil {
		b.CurrentTruckID = nil
		b.CurrentDriverID = nil
		b.OccupiedSince = nil
		b.EstimatedDeparture = nil
		return
	}
	t := *b.CurrentTruck
	b.CurrentTruckID = &t.TruckID
	b.CurrentDriverID = &t.DriverID
	b.OccupiedSince = &t.AssignedAt
	b.EstimatedDeparture = t.EstimatedDeparture
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// RequiresAssignment reports whether a request in this status must carry an assigned truck.
func (s RequestStatus) RequiresAssignment() bool {
	switch s {
	case RequestStatusAssigned, RequestStatusInProgress, RequestStatusCompleted:
		return true
	default:
		return false
	}
}

// Active statuses are the ones still occupying a truck or waiting for one.
func (s RequestStatus) Active() bool {
	return s == RequestStatusPending || s == RequestStatusAssigned || s == RequestStatusInProgress
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from low (1) to urgent (4); unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

type AssignedTruck struct {
	TruckID    uuid.UUID `json:"truckId"`
	DriverID   uuid.UUID `json:"driverId"`
	AssignedAt time.Time `json:"assignedAt"`
	AssignedBy uuid.UUID `json:"assignedBy"`
}

// TruckRequest stores AssignedTruck as four nullable columns that are always written together.
type TruckRequest struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"requesterId"`
	LoadID           string         `gorm:"not null" json:"loadId"`
	LoadDescription  string         `gorm:"type:text;not null" json:"loadDescription"`
	Priority         Priority       `gorm:"type:varchar(10);not null" json:"priority"`
	PickupLocation   string         `gorm:"not null" json:"pickupLocation"`
	DeliveryLocation string         `gorm:"not null" json:"deliveryLocation"`
	EstimatedWeight  *float64       `json:"estimatedWeight,omitempty"`
	RequestedTime    time.Time      `gorm:"not null" json:"requestedTime"`
	RequiredTime     *time.Time     `json:"requiredTime,omitempty"`
	Status           RequestStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	AssignedTruck    *AssignedTruck `gorm:"-" json:"assignedTruck"`
	Notes            string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	AssignedTruckID  *uuid.UUID `gorm:"type:uuid;column:assigned_truck_id" json:"-"`
	AssignedDriverID *uuid.UUID `gorm:"type:uuid;column:assigned_driver_id;index" json:"-"`
	AssignedAt       *time.Time `gorm:"column:assigned_at" json:"-"`
	AssignedBy       *uuid.UUID `gorm:"type:uuid;column:assigned_by" json:"-"`
}

func (TruckRequest) TableName() string {
	return "truck_requests"
}

func (r *TruckRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RequestedTime.IsZero() {
		r.RequestedTime = time.Now()
	}
	return nil
}

func (r *TruckRequest) BeforeSave(tx *gorm.DB) error {
	r.flattenAssignment()
	return nil
}

func (r *TruckRequest) AfterFind(tx *gorm.DB) error {
	r.inflateAssignment()
	return nil
}

func (r *TruckRequest) HasAssignment() bool {
	return r.AssignedTruck != nil
}

func (r *TruckRequest) Assign(assignment AssignedTruck) {
	r.AssignedTruck = &assignment
	r.Status = RequestStatusAssigned
	r.flattenAssignment()
}

func (r *TruckRequest) ClearAssignment() {
	r.AssignedTruck = nil
	r.flattenAssignment()
}

func (r *TruckRequest) flattenAssignment() {
	if r.AssignedTruck == nil {
		r.AssignedTruckID = nil
		r.AssignedDriverID = nil
		r.AssignedAt = nil
		r.AssignedBy = nil
		return
	}
	a := *r.AssignedTruck
	r.AssignedTruckID = &a.TruckID
	r.AssignedDriverID = &a.DriverID
	r.AssignedAt = &a.AssignedAt
	r.AssignedBy = &a.AssignedBy
}

func (r *TruckRequest) inflateAssignment() {
	if r.AssignedTruckID == nil || r.AssignedDriverID == nil {
		r.AssignedTruck = nil
		return
	}
	a := AssignedTruck{
		TruckID:  *r.AssignedTruckID,
		DriverID: *r.AssignedDriverID,
	}
	if r.AssignedAt != nil {
		a.AssignedAt = *r.AssignedAt
	}
	if r.AssignedBy != nil {
		a.AssignedBy = *r.AssignedBy
	}
	r.AssignedTruck = &a
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusAssigned  DriverStatus = "assigned"
	DriverStatusOnTrip    DriverStatus = "on_trip"
	DriverStatusOnLeave   DriverStatus = "on_leave"
	DriverStatusOffDuty   DriverStatus = "off_duty"
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusAvailable, DriverStatusAssigned, DriverStatusOnTrip, DriverStatusOnLeave, DriverStatusOffDuty:
		return true
	default:
		return false
	}
}

type LicenseType string

const (
	LicenseTypeLMV       LicenseType = "LMV"
	LicenseTypeHMV       LicenseType = "HMV"
	LicenseTypeTransport LicenseType = "TRANSPORT"
)

func (t LicenseType) Valid() bool {
	return t == LicenseTypeLMV || t == LicenseTypeHMV || t == LicenseTypeTransport
}

type EmergencyContact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// DriverProfile carries the operational state of a user with the driver role.
// Drivers are referenced elsewhere by their user id.
type DriverProfile struct {
	ID               uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                            `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	User             *User                                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LicenseNumber    string                               `gorm:"not null;uniqueIndex" json:"licenseNumber"`
	LicenseExpiry    time.Time                            `gorm:"not null" json:"licenseExpiry"`
	LicenseType      LicenseType                          `gorm:"type:varchar(20);not null" json:"licenseType"`
	Phone            string                               `gorm:"not null" json:"phone"`
	EmergencyContact datatypes.JSONType[EmergencyContact] `gorm:"type:jsonb" json:"emergencyContact"`
	Address          string                               `json:"address,omitempty"`
	ExperienceYears  int                                  `json:"experienceYears"`
	Status           DriverStatus                         `gorm:"type:varchar(20);not null" json:"status"`
	CurrentTruckID   *uuid.UUID                           `gorm:"type:uuid" json:"currentTruckId,omitempty"`
	AverageRating    float64                              `json:"averageRating"`
	TotalRatings     int                                  `json:"totalRatings"`
	JoinDate         time.Time                            `json:"joinDate"`
	IsActive         bool                                 `gorm:"not null" json:"isActive"`
	CreatedAt        time.Time                            `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time                            `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (DriverProfile) TableName() string {
	return "driver_profiles"
}

func (d *DriverProfile) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.JoinDate.IsZero() {
		d.JoinDate = time.Now()
	}
	return nil
}

func (d *DriverProfile) IsAvailable() bool {
	return d.IsActive && d.Status == DriverStatusAvailable
}

func (d *DriverProfile) AssignTruck(truckID uuid.UUID) {
	d.Status = DriverStatusAssigned
	d.CurrentTruckID = &truckID
}

func (d *DriverProfile) Release() {
	d.Status = DriverStatusAvailable
	d.CurrentTruckID = nil
}

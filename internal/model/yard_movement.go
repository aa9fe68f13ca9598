package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementTypeEntry       MovementType = "entry"
	MovementTypeQueue       MovementType = "queue"
	MovementTypeBayAssigned MovementType = "bay_assigned"
	MovementTypeLoading     MovementType = "loading"
	MovementTypeDeparture   MovementType = "departure"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeQueue, MovementTypeBayAssigned, MovementTypeLoading, MovementTypeDeparture:
		return true
	default:
		return false
	}
}

// YardMovement is an append-only log row. TruckID and DriverID are empty only for
// queue rows written before the request had a truck.
type YardMovement struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TruckRequestID uuid.UUID    `gorm:"type:uuid;not null;index" json:"truckRequestId"`
	TruckID        *uuid.UUID   `gorm:"type:uuid;index" json:"truckId"`
	DriverID       *uuid.UUID   `gorm:"type:uuid" json:"driverId"`
	MovementType   MovementType `gorm:"type:varchar(20);not null" json:"movementType"`
	FromLocation   string       `json:"fromLocation,omitempty"`
	ToLocation     string       `gorm:"not null" json:"toLocation"`
	LoadingBayID   *uuid.UUID   `gorm:"type:uuid" json:"loadingBayId,omitempty"`
	SwitcherID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"switcherId"`
	Notes          string       `gorm:"type:text" json:"notes,omitempty"`
	EstimatedTime  *time.Time   `json:"estimatedTime,omitempty"`
	ActualTime     time.Time    `gorm:"not null" json:"actualTime"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"createdAt"`
}

func (YardMovement) TableName() string {
	return "yard_movements"
}

func (m *YardMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.ActualTime.IsZero() {
		m.ActualTime = time.Now()
	}
	return nil
}

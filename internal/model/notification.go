package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeTruckRequest NotificationType = "truck_request"
	NotificationTypeStatusUpdate NotificationType = "status_update"
	NotificationTypeAssignment   NotificationType = "assignment"
	NotificationTypeGeneral      NotificationType = "general"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeTruckRequest, NotificationTypeStatusUpdate, NotificationTypeAssignment, NotificationTypeGeneral:
		return true
	default:
		return false
	}
}

type NotificationData struct {
	TruckRequestID *uuid.UUID    `json:"truckRequestId,omitempty"`
	TruckID        *uuid.UUID    `json:"truckId,omitempty"`
	BayID          *uuid.UUID    `json:"bayId,omitempty"`
	BayNumber      string        `json:"bayNumber,omitempty"`
	Status         RequestStatus `json:"status,omitempty"`
	Priority       Priority      `json:"priority,omitempty"`
	MovementType   MovementType  `json:"movementType,omitempty"`
	Location       string        `json:"location,omitempty"`
	ActionURL      string        `json:"actionUrl,omitempty"`
}

type Notification struct {
	ID          uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID                            `gorm:"type:uuid;not null;index" json:"recipientId"`
	SenderID    *uuid.UUID                           `gorm:"type:uuid" json:"senderId,omitempty"`
	Type        NotificationType                     `gorm:"type:varchar(20);not null" json:"type"`
	Title       string                               `gorm:"not null" json:"title"`
	Message     string                               `gorm:"type:text;not null" json:"message"`
	Data        datatypes.JSONType[NotificationData] `gorm:"type:jsonb" json:"data"`
	IsRead      bool                                 `gorm:"not null;index" json:"isRead"`
	ReadAt      *time.Time                           `json:"readAt,omitempty"`
	CreatedAt   time.Time                            `gorm:"autoCreateTime" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (n *Notification) MarkRead(at time.Time) {
	n.IsRead = true
	n.ReadAt = &at
}

func RequestActionURL(requestID uuid.UUID) string {
	return "/dashboard/requests/" + requestID.String()
}

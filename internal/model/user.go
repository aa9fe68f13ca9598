package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Department string

const (
	DepartmentLoading        Department = "loading"
	DepartmentTransportation Department = "transportation"
	DepartmentManagement     Department = "management"
	DepartmentAdmin          Department = "admin"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentLoading, DepartmentTransportation, DepartmentManagement, DepartmentAdmin:
		return true
	default:
		return false
	}
}

type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, SMS: false, Push: true}
}

type User struct {
	ID           uuid.UUID                                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string                                      `gorm:"not null" json:"name"`
	Email        string                                      `gorm:"not null;uniqueIndex" json:"email"`
	Role         Role                                        `gorm:"type:varchar(20);not null" json:"role"`
	Department   Department                                  `gorm:"type:varchar(30);not null" json:"department"`
	Phone        string                                      `json:"phone,omitempty"`
	IsActive     bool                                        `gorm:"not null" json:"isActive"`
	DeviceTokens pq.StringArray                              `gorm:"type:text[]" json:"-"`
	Preferences  datatypes.JSONType[NotificationPreferences] `gorm:"type:jsonb" json:"preferences"`
	LastLogin    *time.Time                                  `json:"lastLogin,omitempty"`
	CreatedAt    time.Time                                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps device_tokens an empty array rather than NULL.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.DeviceTokens == nil {
		u.DeviceTokens = pq.StringArray{}
	}
	return nil
}

func (u *User) ClearDeviceTokens() {
	u.DeviceTokens = pq.StringArray{}
}

// AddDeviceToken reports whether the token was not registered yet.
func (u *User) AddDeviceToken(token string) bool {
	for _, existing := range u.DeviceTokens {
		if existing == token {
			return false
		}
	}
	u.DeviceTokens = append(u.DeviceTokens, token)
	return true
}

func (u *User) RemoveDeviceToken(token string) {
	kept := make(pq.StringArray, 0, len(u.DeviceTokens))
	for _, existing := range u.DeviceTokens {
		if existing != token {
			kept = append(kept, existing)
		}
	}
	u.DeviceTokens = kept
}

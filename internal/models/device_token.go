package models

import "time"

// DeviceToken stores an FCM registration token for one of a user's devices.
// The token itself is unique; re-registering under another user moves it.
type DeviceToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Token     string    `json:"token" gorm:"uniqueIndex"`
	Platform  string    `json:"platform,omitempty" gorm:"size:20"` // ios, android, web
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterDeviceRequest defines the request body for registering a device token
type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}

package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Username    string `json:"username" gorm:"uniqueIndex"`
	Headline    string `json:"headline,omitempty"` // e.g. "Backend Engineer at Acme"
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	About       string `json:"about,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Password    string  `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID *string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID, NULL for local accounts
}

// UserCompact is the author card embedded in enriched responses
type UserCompact struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Headline  string `json:"headline,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, Username: u.Username, Headline: u.Headline, AvatarURL: u.AvatarURL}
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Name      string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Headline  string `json:"headline,omitempty" validate:"omitempty,max=120"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=100"`
	Location  string `json:"location,omitempty" validate:"omitempty,max=100"`
	About     string `json:"about,omitempty" validate:"omitempty,max=2000"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

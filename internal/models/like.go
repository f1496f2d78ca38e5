package models

import "time"

// Like represents a like on a post. One row per user per post; rows are hard
// deleted on unlike so the unique index allows liking again later.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"uniqueIndex:idx_like_post_user"` // MongoDB ObjectID as string
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLikeRequest defines the request body for liking a post
type CreateLikeRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

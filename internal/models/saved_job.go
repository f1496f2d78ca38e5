package models

import "time"

// SavedJob represents a job bookmarked by a user
type SavedJob struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_job_save"`
	JobID     uint      `json:"job_id" gorm:"index;uniqueIndex:idx_user_job_save"`
	CreatedAt time.Time `json:"created_at"`
}

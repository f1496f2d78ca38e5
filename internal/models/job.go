package models

import "time"

// Job application statuses
const (
	ApplicationStatusApplied  = "applied"
	ApplicationStatusReviewed = "reviewed"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// Job represents a job posting (PostgreSQL)
type Job struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PosterID       uint      `json:"poster_id" gorm:"index"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	EmploymentType string    `json:"employment_type" gorm:"size:20"` // full_time, part_time, contract, internship
	SalaryRange    string    `json:"salary_range,omitempty"`
	IsOpen         bool      `json:"is_open" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobApplication represents one user's application to a job. One row per
// applicant per job.
type JobApplication struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	JobID       uint      `json:"job_id" gorm:"index;uniqueIndex:idx_job_applicant"`
	ApplicantID uint      `json:"applicant_id" gorm:"index;uniqueIndex:idx_job_applicant"`
	CoverNote   string    `json:"cover_note"`
	ResumeURL   string    `json:"resume_url,omitempty"`
	Status      string    `json:"status" gorm:"size:20;default:'applied'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateJobRequest defines the request body for posting a job
type CreateJobRequest struct {
	Title          string `json:"title" validate:"required,min=3,max=120"`
	Company        string `json:"company" validate:"required,min=1,max=100"`
	Location       string `json:"location" validate:"omitempty,max=100"`
	Description    string `json:"description" validate:"required,min=10,max=10000"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship"`
	SalaryRange    string `json:"salary_range,omitempty" validate:"omitempty,max=60"`
}

// UpdateJobRequest defines the request body for editing a job posting.
// IsOpen is a pointer so an absent field leaves the posting state alone.
type UpdateJobRequest struct {
	Title          string `json:"title,omitempty" validate:"omitempty,min=3,max=120"`
	Company        string `json:"company,omitempty" validate:"omitempty,min=1,max=100"`
	Location       string `json:"location,omitempty" validate:"omitempty,max=100"`
	Description    string `json:"description,omitempty" validate:"omitempty,min=10,max=10000"`
	EmploymentType string `json:"employment_type,omitempty" validate:"omitempty,oneof=full_time part_time contract internship"`
	SalaryRange    string `json:"salary_range,omitempty" validate:"omitempty,max=60"`
	IsOpen         *bool  `json:"is_open,omitempty"`
}

// ApplyToJobRequest defines the request body for applying to a job
type ApplyToJobRequest struct {
	CoverNote string `json:"cover_note" validate:"omitempty,max=2000"`
	ResumeURL string `json:"resume_url,omitempty" validate:"omitempty,url"`
}

// UpdateApplicationRequest defines the request body for the poster moving an
// application through its states
type UpdateApplicationRequest struct {
	Status string `json:"status" validate:"required,oneof=reviewed accepted rejected"`
}

package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
)

// JobRepository defines the interface for job posting and application operations
type JobRepository interface {
	CreateJob(job *models.Job) error
	GetJobByID(id uint) (*models.Job, error)
	GetJobs(page, limit int) ([]models.Job, int64, error)
	GetJobsByPosterID(posterID uint) ([]models.Job, error)
	SearchJobs(query string, page, limit int) ([]models.Job, int64, error)
	UpdateJob(job *models.Job) error
	DeleteJob(id uint) error

	CreateApplication(app *models.JobApplication) error
	GetApplicationByID(id uint) (*models.JobApplication, error)
	GetApplication(jobID, applicantID uint) (*models.JobApplication, error)
	GetApplicationsByJobID(jobID uint) ([]models.JobApplication, error)
	GetApplicationsByApplicantID(applicantID uint) ([]models.JobApplication, error)
	UpdateApplicationStatus(id uint, status string) error
}

// PostgresJobRepository implements JobRepository for PostgreSQL
type PostgresJobRepository struct {
	db *gorm.DB
}

// NewPostgresJobRepository creates a new PostgresJobRepository
func NewPostgresJobRepository(db *gorm.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) CreateJob(job *models.Job) error {
	if err := r.db.Create(job).Error; err != nil {
		return errors.Wrap(err, "jobRepo.CreateJob")
	}
	return nil
}

func (r *PostgresJobRepository) GetJobByID(id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetJobByID")
	}
	return &job, nil
}

func (r *PostgresJobRepository) GetJobs(page, limit int) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64

	if err := r.db.Model(&models.Job{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "jobRepo.GetJobs.Count")
	}

	offset := (page - 1) * limit
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "jobRepo.GetJobs")
	}
	return jobs, total, nil
}

func (r *PostgresJobRepository) GetJobsByPosterID(posterID uint) ([]models.Job, error) {
	var jobs []models.Job
	if err := r.db.Where("poster_id = ?", posterID).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetJobsByPosterID")
	}
	return jobs, nil
}

// SearchJobs matches title, company or location (case-insensitive)
func (r *PostgresJobRepository) SearchJobs(query string, page, limit int) ([]models.Job, int64, error) {
	var jobs []models.Job
	var total int64
	like := "%" + query + "%"

	base := r.db.Model(&models.Job{}).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(company) LIKE LOWER(?) OR LOWER(location) LIKE LOWER(?)", like, like, like)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "jobRepo.SearchJobs.Count")
	}

	offset := (page - 1) * limit
	err := base.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "jobRepo.SearchJobs")
	}
	return jobs, total, nil
}

func (r *PostgresJobRepository) UpdateJob(job *models.Job) error {
	if err := r.db.Save(job).Error; err != nil {
		return errors.Wrap(err, "jobRepo.UpdateJob")
	}
	return nil
}

func (r *PostgresJobRepository) DeleteJob(id uint) error {
	if err := r.db.Delete(&models.Job{}, id).Error; err != nil {
		return errors.Wrap(err, "jobRepo.DeleteJob")
	}
	return nil
}

func (r *PostgresJobRepository) CreateApplication(app *models.JobApplication) error {
	if err := r.db.Create(app).Error; err != nil {
		return errors.Wrap(err, "jobRepo.CreateApplication")
	}
	return nil
}

func (r *PostgresJobRepository) GetApplicationByID(id uint) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := r.db.First(&app, id).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetApplicationByID")
	}
	return &app, nil
}

func (r *PostgresJobRepository) GetApplication(jobID, applicantID uint) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := r.db.Where("job_id = ? AND applicant_id = ?", jobID, applicantID).First(&app).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetApplication")
	}
	return &app, nil
}

func (r *PostgresJobRepository) GetApplicationsByJobID(jobID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	if err := r.db.Where("job_id = ?", jobID).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetApplicationsByJobID")
	}
	return apps, nil
}

func (r *PostgresJobRepository) GetApplicationsByApplicantID(applicantID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	if err := r.db.Where("applicant_id = ?", applicantID).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, errors.Wrap(err, "jobRepo.GetApplicationsByApplicantID")
	}
	return apps, nil
}

func (r *PostgresJobRepository) UpdateApplicationStatus(id uint, status string) error {
	err := r.db.Model(&models.JobApplication{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return errors.Wrap(err, "jobRepo.UpdateApplicationStatus")
	}
	return nil
}

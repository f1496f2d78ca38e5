package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
)

// ErrSavedJobNotFound is returned when unsaving a job that was never saved
var ErrSavedJobNotFound = errors.New("saved job not found")

// SavedJobRepository defines the interface for saved job operations
type SavedJobRepository interface {
	SaveJob(savedJob *models.SavedJob) error
	UnsaveJob(userID, jobID uint) error
	IsJobSaved(userID, jobID uint) (bool, error)
	GetSavedJobsByUser(userID uint) ([]models.SavedJob, error)
	GetSavedJobIDs(userID uint, jobIDs []uint) (map[uint]bool, error)
}

// PostgresSavedJobRepository implements SavedJobRepository
type PostgresSavedJobRepository struct {
	db *gorm.DB
}

func NewPostgresSavedJobRepository(db *gorm.DB) *PostgresSavedJobRepository {
	return &PostgresSavedJobRepository{db: db}
}

func (r *PostgresSavedJobRepository) SaveJob(savedJob *models.SavedJob) error {
	if err := r.db.Create(savedJob).Error; err != nil {
		return errors.Wrap(err, "savedJobRepo.SaveJob")
	}
	return nil
}

func (r *PostgresSavedJobRepository) UnsaveJob(userID, jobID uint) error {
	res := r.db.Where("user_id = ? AND job_id = ?", userID, jobID).Delete(&models.SavedJob{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "savedJobRepo.UnsaveJob")
	}
	if res.RowsAffected == 0 {
		return ErrSavedJobNotFound
	}
	return nil
}

func (r *PostgresSavedJobRepository) IsJobSaved(userID, jobID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SavedJob{}).Where("user_id = ? AND job_id = ?", userID, jobID).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "savedJobRepo.IsJobSaved")
	}
	return count > 0, nil
}

func (r *PostgresSavedJobRepository) GetSavedJobsByUser(userID uint) ([]models.SavedJob, error) {
	var saved []models.SavedJob
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&saved).Error
	if err != nil {
		return nil, errors.Wrap(err, "savedJobRepo.GetSavedJobsByUser")
	}
	return saved, nil
}

// GetSavedJobIDs reports which of the given jobs the user has saved
func (r *PostgresSavedJobRepository) GetSavedJobIDs(userID uint, jobIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(jobIDs))
	if len(jobIDs) == 0 {
		return result, nil
	}
	var saved []models.SavedJob
	if err := r.db.Where("user_id = ? AND job_id IN ?", userID, jobIDs).Find(&saved).Error; err != nil {
		return nil, errors.Wrap(err, "savedJobRepo.GetSavedJobIDs")
	}
	for _, s := range saved {
		result[s.JobID] = true
	}
	return result, nil
}

package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	GetCommentsByPostID(postID string) ([]models.Comment, error)
	UpdateComment(comment *models.Comment) error
	DeleteComment(id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return errors.Wrap(err, "commentRepo.CreateComment")
	}
	return nil
}

func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, errors.Wrap(err, "commentRepo.GetCommentByID")
	}
	return &comment, nil
}

// GetCommentsByPostID retrieves all comments for a post, oldest first
func (r *PostgresCommentRepository) GetCommentsByPostID(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, errors.Wrap(err, "commentRepo.GetCommentsByPostID")
	}
	return comments, nil
}

func (r *PostgresCommentRepository) UpdateComment(comment *models.Comment) error {
	if err := r.db.Save(comment).Error; err != nil {
		return errors.Wrap(err, "commentRepo.UpdateComment")
	}
	return nil
}

func (r *PostgresCommentRepository) DeleteComment(id uint) error {
	if err := r.db.Delete(&models.Comment{}, id).Error; err != nil {
		return errors.Wrap(err, "commentRepo.DeleteComment")
	}
	return nil
}

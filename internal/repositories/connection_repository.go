package repositories

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
)

// ConnectionRepository defines the interface for connection data operations.
// All pair lookups expect the caller to pass any order; methods normalize.
type ConnectionRepository interface {
	Create(conn *models.Connection) error
	GetByPair(a, b uint) (*models.Connection, error)
	AcceptPending(a, b uint, acceptedAt time.Time) (int64, error)
	DeleteByPair(a, b uint) (int64, error)
	ListAccepted(userID uint) ([]models.Connection, error)
	ListPendingIncoming(userID uint) ([]models.Connection, error)
	ListPendingOutgoing(userID uint) ([]models.Connection, error)
	CountAccepted(userID uint) (int64, error)
}

// PostgresConnectionRepository implements ConnectionRepository for PostgreSQL
type PostgresConnectionRepository struct {
	db *gorm.DB
}

// NewPostgresConnectionRepository creates a new PostgresConnectionRepository
func NewPostgresConnectionRepository(db *gorm.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

func (r *PostgresConnectionRepository) Create(conn *models.Connection) error {
	conn.UserLowID, conn.UserHighID = models.NormalizePair(conn.UserLowID, conn.UserHighID)
	if err := r.db.Create(conn).Error; err != nil {
		return errors.Wrap(err, "connectionRepo.Create")
	}
	return nil
}

// GetByPair loads the single row for two users, in either order.
func (r *PostgresConnectionRepository) GetByPair(a, b uint) (*models.Connection, error) {
	low, high := models.NormalizePair(a, b)
	var conn models.Connection
	if err := r.db.Where("user_low_id = ? AND user_high_id = ?", low, high).First(&conn).Error; err != nil {
		return nil, errors.Wrap(err, "connectionRepo.GetByPair")
	}
	return &conn, nil
}

// AcceptPending flips a pending row to accepted. The status guard makes the
// transition race-safe; the caller inspects the affected-row count.
func (r *PostgresConnectionRepository) AcceptPending(a, b uint, acceptedAt time.Time) (int64, error) {
	low, high := models.NormalizePair(a, b)
	res := r.db.Model(&models.Connection{}).
		Where("user_low_id = ? AND user_high_id = ? AND status = ?", low, high, models.ConnectionStatusPending).
		Updates(map[string]interface{}{"status": models.ConnectionStatusAccepted, "accepted_at": acceptedAt})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "connectionRepo.AcceptPending")
	}
	return res.RowsAffected, nil
}

// DeleteByPair removes whatever row exists for the pair, pending or accepted.
func (r *PostgresConnectionRepository) DeleteByPair(a, b uint) (int64, error) {
	low, high := models.NormalizePair(a, b)
	res := r.db.Where("user_low_id = ? AND user_high_id = ?", low, high).Delete(&models.Connection{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "connectionRepo.DeleteByPair")
	}
	return res.RowsAffected, nil
}

func (r *PostgresConnectionRepository) ListAccepted(userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.
		Where("(user_low_id = ? OR user_high_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Order("accepted_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Wrap(err, "connectionRepo.ListAccepted")
	}
	return conns, nil
}

// ListPendingIncoming returns pending rows where someone else initiated.
func (r *PostgresConnectionRepository) ListPendingIncoming(userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.
		Where("(user_low_id = ? OR user_high_id = ?) AND status = ? AND requester_id <> ?",
			userID, userID, models.ConnectionStatusPending, userID).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Wrap(err, "connectionRepo.ListPendingIncoming")
	}
	return conns, nil
}

// ListPendingOutgoing returns pending rows this user initiated.
func (r *PostgresConnectionRepository) ListPendingOutgoing(userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.
		Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Wrap(err, "connectionRepo.ListPendingOutgoing")
	}
	return conns, nil
}

func (r *PostgresConnectionRepository) CountAccepted(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Connection{}).
		Where("(user_low_id = ? OR user_high_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "connectionRepo.CountAccepted")
	}
	return count, nil
}

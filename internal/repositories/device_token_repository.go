package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pro-connect/backend/internal/models"
)

// DeviceTokenRepository defines the interface for FCM device token storage
type DeviceTokenRepository interface {
	Upsert(token *models.DeviceToken) error
	GetTokensByUserID(userID uint) ([]models.DeviceToken, error)
	DeleteToken(token string) error
	DeleteTokensForUser(userID uint, token string) error
}

// PostgresDeviceTokenRepository implements DeviceTokenRepository
type PostgresDeviceTokenRepository struct {
	db *gorm.DB
}

func NewPostgresDeviceTokenRepository(db *gorm.DB) *PostgresDeviceTokenRepository {
	return &PostgresDeviceTokenRepository{db: db}
}

// Upsert stores the token, reassigning it when another user registered the
// same device before.
func (r *PostgresDeviceTokenRepository) Upsert(token *models.DeviceToken) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return errors.Wrap(err, "deviceTokenRepo.Upsert")
	}
	return nil
}

func (r *PostgresDeviceTokenRepository) GetTokensByUserID(userID uint) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	if err := r.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, errors.Wrap(err, "deviceTokenRepo.GetTokensByUserID")
	}
	return tokens, nil
}

// DeleteToken removes a token no matter which user owns it, used when FCM
// reports the registration gone.
func (r *PostgresDeviceTokenRepository) DeleteToken(token string) error {
	if err := r.db.Where("token = ?", token).Delete(&models.DeviceToken{}).Error; err != nil {
		return errors.Wrap(err, "deviceTokenRepo.DeleteToken")
	}
	return nil
}

// DeleteTokensForUser removes one of a user's registrations, used at logout
func (r *PostgresDeviceTokenRepository) DeleteTokensForUser(userID uint, token string) error {
	if err := r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.DeviceToken{}).Error; err != nil {
		return errors.Wrap(err, "deviceTokenRepo.DeleteTokensForUser")
	}
	return nil
}

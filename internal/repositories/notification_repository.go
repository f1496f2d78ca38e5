package repositories

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
)

// NotificationRepository defines the interface for notification ledger operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(recipientID uint) ([]models.Notification, []models.Notification, []models.Notification, []models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(notificationID uint, readAt time.Time) error
	MarkAllAsRead(recipientID uint, readAt time.Time) error
	DeleteNotification(notificationID uint) error
	DeleteAllForRecipient(recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		return errors.Wrap(err, "notificationRepo.CreateNotification")
	}
	return nil
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, errors.Wrap(err, "notificationRepo.GetByID")
	}
	return &notification, nil
}

// GetByRecipientID pages through a user's ledger newest first. The id tiebreak
// keeps the order stable for notifications created in the same instant.
func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	if err := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "notificationRepo.GetByRecipientID.Count")
	}

	offset := (page - 1) * limit
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "notificationRepo.GetByRecipientID")
	}

	return notifications, total, nil
}

func (r *postgresNotificationRepository) GetGrouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, retErr error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	// Today
	if err := r.db.Where("recipient_id = ? AND created_at >= ?", recipientID, todayStart).
		Order("created_at DESC, id DESC").Find(&today).Error; err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "notificationRepo.GetGrouped.Today")
	}

	// Yesterday
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, yesterdayStart, todayStart).
		Order("created_at DESC, id DESC").Find(&yesterday).Error; err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "notificationRepo.GetGrouped.Yesterday")
	}

	// This week (excluding today and yesterday)
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, weekStart, yesterdayStart).
		Order("created_at DESC, id DESC").Find(&thisWeek).Error; err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "notificationRepo.GetGrouped.ThisWeek")
	}

	// Older
	if err := r.db.Where("recipient_id = ? AND created_at < ?", recipientID, weekStart).
		Order("created_at DESC, id DESC").Limit(50).Find(&older).Error; err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "notificationRepo.GetGrouped.Older")
	}

	return today, yesterday, thisWeek, older, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "notificationRepo.GetUnreadCount")
	}
	return count, nil
}

// MarkAsRead flips one notification. Already-read rows are left untouched so
// the first read_at timestamp survives repeat calls.
func (r *postgresNotificationRepository) MarkAsRead(notificationID uint, readAt time.Time) error {
	err := r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
	if err != nil {
		return errors.Wrap(err, "notificationRepo.MarkAsRead")
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint, readAt time.Time) error {
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
	if err != nil {
		return errors.Wrap(err, "notificationRepo.MarkAllAsRead")
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteNotification(notificationID uint) error {
	if err := r.db.Delete(&models.Notification{}, notificationID).Error; err != nil {
		return errors.Wrap(err, "notificationRepo.DeleteNotification")
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteAllForRecipient(recipientID uint) error {
	if err := r.db.Where("recipient_id = ?", recipientID).Delete(&models.Notification{}).Error; err != nil {
		return errors.Wrap(err, "notificationRepo.DeleteAllForRecipient")
	}
	return nil
}

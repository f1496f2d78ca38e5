package notify

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// Ledger is the durable per-recipient notification store. Every notification
// a user ever sees exists here first; live pushes and badges are derived.
type Ledger struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
}

// NewLedger creates a Ledger over the notification and user repositories.
func NewLedger(notifications repositories.NotificationRepository, users repositories.UserRepository) *Ledger {
	return &Ledger{notifications: notifications, users: users}
}

// Append persists one notification record for an existing recipient.
func (l *Ledger) Append(n *models.Notification) error {
	if _, err := l.users.GetUserByID(n.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.CodeInternal, "failed to resolve notification recipient", err)
	}
	if err := l.notifications.CreateNotification(n); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to store notification", err)
	}
	return nil
}

// List pages through the recipient's ledger, newest first.
func (l *Ledger) List(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	notifications, total, err := l.notifications.GetByRecipientID(recipientID, page, limit)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, "failed to list notifications", err)
	}
	return notifications, total, nil
}

// Grouped splits the recipient's ledger into today / yesterday / this week /
// older buckets for the notification center UI.
func (l *Ledger) Grouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, err error) {
	today, yesterday, thisWeek, older, err = l.notifications.GetGrouped(recipientID)
	if err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to group notifications", err)
	}
	return today, yesterday, thisWeek, older, nil
}

// UnreadCount returns the recipient's badge number.
func (l *Ledger) UnreadCount(recipientID uint) (int64, error) {
	count, err := l.notifications.GetUnreadCount(recipientID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "failed to count unread notifications", err)
	}
	return count, nil
}

// MarkRead flips one notification for its owner. Reading someone else's
// notification is forbidden; re-reading your own is a no-op.
func (l *Ledger) MarkRead(recipientID, notificationID uint) error {
	n, err := l.owned(recipientID, notificationID)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}

	if err := l.notifications.MarkAsRead(notificationID, time.Now()); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead flips everything unread for the recipient.
func (l *Ledger) MarkAllRead(recipientID uint) error {
	if err := l.notifications.MarkAllAsRead(recipientID, time.Now()); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to mark notifications read", err)
	}
	return nil
}

// Remove deletes one notification for its owner.
func (l *Ledger) Remove(recipientID, notificationID uint) error {
	if _, err := l.owned(recipientID, notificationID); err != nil {
		return err
	}
	if err := l.notifications.DeleteNotification(notificationID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete notification", err)
	}
	return nil
}

// ClearAll empties the recipient's ledger.
func (l *Ledger) ClearAll(recipientID uint) error {
	if err := l.notifications.DeleteAllForRecipient(recipientID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to clear notifications", err)
	}
	return nil
}

// owned loads a notification and checks the caller is its recipient.
func (l *Ledger) owned(recipientID, notificationID uint) (*models.Notification, error) {
	n, err := l.notifications.GetByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load notification", err)
	}
	if n.RecipientID != recipientID {
		return nil, apperrors.ErrNotificationOwner
	}
	return n, nil
}

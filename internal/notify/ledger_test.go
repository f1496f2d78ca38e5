package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// newTestLedger seeds users 1, 2, 3 and 9 so tests can append between them
// without ceremony.
func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))

	for _, id := range []uint{1, 2, 3, 9} {
		user := &models.User{
			ID:       id,
			Name:     fmt.Sprintf("User %d", id),
			Username: fmt.Sprintf("user%d", id),
			Email:    fmt.Sprintf("user%d@example.com", id),
		}
		require.NoError(t, db.Create(user).Error)
	}

	return NewLedger(
		repositories.NewPostgresNotificationRepository(db),
		repositories.NewPostgresUserRepository(db),
	), db
}

func appendNotification(t *testing.T, ledger *Ledger, recipientID, senderID uint, notifType, message string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifType,
		Message:     message,
	}
	require.NoError(t, ledger.Append(n))
	require.NotZero(t, n.ID)
	return n
}

func TestLedgerAppend(t *testing.T) {
	t.Run("happy path - record lands unread", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationConnectionRequest, "Bob wants to connect")

		var stored models.Notification
		require.NoError(t, db.First(&stored, n.ID).Error)
		assert.False(t, stored.IsRead)
		assert.Nil(t, stored.ReadAt)
	})

	t.Run("unknown recipient is rejected", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		err := ledger.Append(&models.Notification{RecipientID: 777, SenderID: 2, Type: models.NotificationPostLike, Message: "like"})
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestLedgerList(t *testing.T) {
	t.Run("happy path - newest first, scoped to the recipient", func(t *testing.T) {
		ledger, _ := newTestLedger(t)

		first := appendNotification(t, ledger, 1, 2, models.NotificationConnectionRequest, "Bob wants to connect")
		second := appendNotification(t, ledger, 1, 3, models.NotificationPostLike, "Carol liked your post")
		appendNotification(t, ledger, 9, 2, models.NotificationPostLike, "someone else's notification")

		notifications, total, err := ledger.List(1, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, notifications, 2)
		assert.Equal(t, second.ID, notifications[0].ID)
		assert.Equal(t, first.ID, notifications[1].ID)
	})

	t.Run("equal timestamps fall back to id order", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		var ids []uint
		for i := 0; i < 3; i++ {
			n := &models.Notification{RecipientID: 1, SenderID: 2, Type: models.NotificationPostLike, Message: "like", CreatedAt: at}
			require.NoError(t, db.Create(n).Error)
			ids = append(ids, n.ID)
		}

		notifications, _, err := ledger.List(1, 1, 10)
		require.NoError(t, err)
		require.Len(t, notifications, 3)
		assert.Equal(t, ids[2], notifications[0].ID)
		assert.Equal(t, ids[1], notifications[1].ID)
		assert.Equal(t, ids[0], notifications[2].ID)
	})

	t.Run("pagination keeps the total stable", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		for i := 0; i < 5; i++ {
			appendNotification(t, ledger, 1, 2, models.NotificationPostComment, "commented")
		}

		page1, total, err := ledger.List(1, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, page1, 2)

		page3, total, err := ledger.List(1, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, page3, 1)
	})
}

func TestLedgerUnreadCount(t *testing.T) {
	ledger, _ := newTestLedger(t)

	appendNotification(t, ledger, 1, 2, models.NotificationConnectionRequest, "Bob wants to connect")
	n := appendNotification(t, ledger, 1, 3, models.NotificationPostLike, "Carol liked your post")
	appendNotification(t, ledger, 9, 2, models.NotificationPostLike, "other user")

	count, err := ledger.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, ledger.MarkRead(1, n.ID))

	count, err = ledger.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLedgerMarkRead(t *testing.T) {
	t.Run("happy path - sets read flag and timestamp", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationConnectionRequest, "Bob wants to connect")

		require.NoError(t, ledger.MarkRead(1, n.ID))

		var stored models.Notification
		require.NoError(t, db.First(&stored, n.ID).Error)
		assert.True(t, stored.IsRead)
		require.NotNil(t, stored.ReadAt)
	})

	t.Run("marking twice keeps the first read time", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationPostLike, "Bob liked your post")

		require.NoError(t, ledger.MarkRead(1, n.ID))
		var afterFirst models.Notification
		require.NoError(t, db.First(&afterFirst, n.ID).Error)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, ledger.MarkRead(1, n.ID))

		var afterSecond models.Notification
		require.NoError(t, db.First(&afterSecond, n.ID).Error)
		require.NotNil(t, afterSecond.ReadAt)
		assert.True(t, afterSecond.ReadAt.Equal(*afterFirst.ReadAt))
	})

	t.Run("another user's notification is forbidden", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationPostLike, "Bob liked your post")

		err := ledger.MarkRead(42, n.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotificationOwner)

		var stored models.Notification
		require.NoError(t, db.First(&stored, n.ID).Error)
		assert.False(t, stored.IsRead)
	})

	t.Run("unknown notification is not found", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		err := ledger.MarkRead(1, 9999)
		assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
	})
}

func TestLedgerMarkAllRead(t *testing.T) {
	ledger, db := newTestLedger(t)

	for i := 0; i < 3; i++ {
		appendNotification(t, ledger, 1, 2, models.NotificationPostComment, "commented")
	}
	other := appendNotification(t, ledger, 9, 2, models.NotificationPostComment, "other user")

	require.NoError(t, ledger.MarkAllRead(1))

	count, err := ledger.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	var read []models.Notification
	require.NoError(t, db.Where("recipient_id = ?", 1).Find(&read).Error)
	for _, n := range read {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}

	// Untouched for everyone else
	var stored models.Notification
	require.NoError(t, db.First(&stored, other.ID).Error)
	assert.False(t, stored.IsRead)
}

func TestLedgerRemove(t *testing.T) {
	t.Run("happy path - record is gone", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationPostLike, "Bob liked your post")
		keep := appendNotification(t, ledger, 1, 3, models.NotificationPostComment, "Carol commented")

		require.NoError(t, ledger.Remove(1, n.ID))

		notifications, total, err := ledger.List(1, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, notifications, 1)
		assert.Equal(t, keep.ID, notifications[0].ID)
	})

	t.Run("another user's notification is forbidden", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		n := appendNotification(t, ledger, 1, 2, models.NotificationPostLike, "Bob liked your post")

		err := ledger.Remove(42, n.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotificationOwner)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown notification is not found", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		assert.ErrorIs(t, ledger.Remove(1, 9999), apperrors.ErrNotificationNotFound)
	})
}

func TestLedgerClearAll(t *testing.T) {
	ledger, _ := newTestLedger(t)

	for i := 0; i < 3; i++ {
		appendNotification(t, ledger, 1, 2, models.NotificationPostComment, "commented")
	}
	appendNotification(t, ledger, 9, 2, models.NotificationPostComment, "other user")

	require.NoError(t, ledger.ClearAll(1))

	_, total, err := ledger.List(1, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	// The other recipient's ledger survives
	_, total, err = ledger.List(9, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

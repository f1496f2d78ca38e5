package models

import "time"

// Connection statuses
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
)

// Connection is the single record for a pair of users regardless of direction.
// UserLowID always holds the smaller of the two user IDs, so one pair maps to
// exactly one row; RequesterID records which side initiated. Rows are hard
// deleted on removal so the pair index stays reusable for a later request.
type Connection struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserLowID   uint       `json:"user_low_id" gorm:"uniqueIndex:idx_connection_pair"`
	UserHighID  uint       `json:"user_high_id" gorm:"uniqueIndex:idx_connection_pair"`
	RequesterID uint       `json:"requester_id" gorm:"index"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

// NormalizePair orders two user IDs into (low, high).
func NormalizePair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// PeerOf returns the other user of the pair.
func (c *Connection) PeerOf(userID uint) uint {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// RecipientID returns the user a pending request was sent to.
func (c *Connection) RecipientID() uint {
	return c.PeerOf(c.RequesterID)
}

// SendConnectionRequest defines the request body for sending a connection request
type SendConnectionRequest struct {
	RecipientID uint `json:"recipient_id" validate:"required"`
}

package models

import "time"

// Notification types. Every producer goes through notify.Fanout with one of these.
const (
	NotificationConnectionRequest    = "connection-request"
	NotificationConnectionAccepted   = "connection-accepted"
	NotificationPostLike             = "post-like"
	NotificationPostComment          = "post-comment"
	NotificationPostShare            = "post-share"
	NotificationJobApplication       = "job-application"
	NotificationJobApplicationUpdate = "job-application-update"
	NotificationMessage              = "message"
	NotificationGroupInvite          = "group-invite"
	NotificationGroupUpdate          = "group-update"
	NotificationGroupAdmin           = "group-admin"
	NotificationGroupRemove          = "group-remove"
	NotificationGroupLeave           = "group-leave"
	NotificationMention              = "mention"
)

// Reference kinds a notification can point at.
const (
	RefKindPost         = "post"
	RefKindJob          = "job"
	RefKindUser         = "user"
	RefKindConversation = "conversation"
)

// Notification represents one entry in a user's notification ledger (PostgreSQL).
// RefID is a string because posts and conversations live in Mongo (hex object
// ids) while jobs and users are Postgres ids.
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	RecipientID uint       `json:"recipient_id" gorm:"index:idx_notifications_recipient"`
	SenderID    uint       `json:"sender_id" gorm:"index"`
	Type        string     `json:"type" gorm:"size:30;index"`
	Message     string     `json:"message"` // pre-rendered, e.g. "Jane Doe wants to connect"
	RefKind     string     `json:"ref_kind,omitempty" gorm:"size:20"`
	RefID       string     `json:"ref_id,omitempty"`
	IsRead      bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_notifications_recipient"`
}

package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a direct or group conversation stored in MongoDB.
// Direct conversations have exactly two participants and a DirectKey so the
// same pair always resolves to one document; groups leave DirectKey empty.
type Conversation struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	IsGroup        bool               `json:"is_group" bson:"is_group"`
	Name           string             `json:"name,omitempty" bson:"name,omitempty"` // group name, empty for direct
	DirectKey      string             `json:"-" bson:"direct_key,omitempty"`
	ParticipantIDs []uint             `json:"participant_ids" bson:"participant_ids"`
	AdminIDs       []uint             `json:"admin_ids,omitempty" bson:"admin_ids,omitempty"`
	CreatedBy      uint               `json:"created_by" bson:"created_by"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
	LastMessageAt  time.Time          `json:"last_message_at" bson:"last_message_at"`
}

// DirectConversationKey builds the canonical key for a two-user conversation.
func DirectConversationKey(a, b uint) string {
	low, high := NormalizePair(a, b)
	return fmt.Sprintf("%d:%d", low, high)
}

// IsParticipant reports whether the user belongs to the conversation.
func (c *Conversation) IsParticipant(userID uint) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user administers the group.
func (c *Conversation) IsAdmin(userID uint) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message represents a single message within a conversation (MongoDB)
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	Body           string             `json:"body" bson:"body"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// StartDirectConversationRequest opens (or returns) the conversation with one peer
type StartDirectConversationRequest struct {
	PeerID uint `json:"peer_id" validate:"required"`
}

// CreateGroupRequest defines the request body for creating a group conversation
type CreateGroupRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	ParticipantIDs []uint `json:"participant_ids" validate:"required,min=1"`
}

// RenameGroupRequest defines the request body for renaming a group
type RenameGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// GroupMemberRequest names the user an add/remove/promote acts on
type GroupMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pro-connect/backend/internal/models"
)

// MessageRepository defines the interface for conversation and message operations
type MessageRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	GetDirectConversation(ctx context.Context, a, b uint) (*models.Conversation, error)
	GetConversationsByUserID(ctx context.Context, userID uint) ([]models.Conversation, error)
	UpdateGroupName(ctx context.Context, id, name string) error
	AddParticipant(ctx context.Context, id string, userID uint) error
	RemoveParticipant(ctx context.Context, id string, userID uint) error
	AddAdmin(ctx context.Context, id string, userID uint) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessagesByConversationID(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error)
	SetLastMessageAt(ctx context.Context, id string, at time.Time) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// CreateConversation inserts a conversation document
func (r *MongoMessageRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	conv.LastMessageAt = conv.CreatedAt
	if _, err := r.conversations.InsertOne(ctx, conv); err != nil {
		return errors.Wrap(err, "messageRepo.CreateConversation")
	}
	return nil
}

func (r *MongoMessageRepository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetConversationByID.ParseID")
	}

	var conv models.Conversation
	if err := r.conversations.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv); err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetConversationByID")
	}
	return &conv, nil
}

// GetDirectConversation finds the one-to-one conversation for a pair of users,
// in either order.
func (r *MongoMessageRepository) GetDirectConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	key := models.DirectConversationKey(a, b)
	var conv models.Conversation
	if err := r.conversations.FindOne(ctx, bson.M{"direct_key": key}).Decode(&conv); err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetDirectConversation")
	}
	return &conv, nil
}

// GetConversationsByUserID lists a user's conversations, most recently active first
func (r *MongoMessageRepository) GetConversationsByUserID(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	findOptions := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"participant_ids": userID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetConversationsByUserID")
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &convs); err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetConversationsByUserID")
	}
	return convs, nil
}

func (r *MongoMessageRepository) UpdateGroupName(ctx context.Context, id, name string) error {
	return r.updateConversation(ctx, id, bson.M{
		"$set": bson.M{"name": name, "updated_at": time.Now()},
	}, "messageRepo.UpdateGroupName")
}

// AddParticipant adds a user to the participant set, a no-op when already present
func (r *MongoMessageRepository) AddParticipant(ctx context.Context, id string, userID uint) error {
	return r.updateConversation(ctx, id, bson.M{
		"$addToSet": bson.M{"participant_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}, "messageRepo.AddParticipant")
}

// RemoveParticipant drops a user from both the participant and admin sets
func (r *MongoMessageRepository) RemoveParticipant(ctx context.Context, id string, userID uint) error {
	return r.updateConversation(ctx, id, bson.M{
		"$pull": bson.M{"participant_ids": userID, "admin_ids": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}, "messageRepo.RemoveParticipant")
}

func (r *MongoMessageRepository) AddAdmin(ctx context.Context, id string, userID uint) error {
	return r.updateConversation(ctx, id, bson.M{
		"$addToSet": bson.M{"admin_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}, "messageRepo.AddAdmin")
}

func (r *MongoMessageRepository) updateConversation(ctx context.Context, id string, update bson.M, op string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(err, op+".ParseID")
	}
	res, err := r.conversations.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(mongo.ErrNoDocuments, op)
	}
	return nil
}

// CreateMessage inserts a message document
func (r *MongoMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return errors.Wrap(err, "messageRepo.CreateMessage")
	}
	return nil
}

// GetMessagesByConversationID pages through a conversation newest first
func (r *MongoMessageRepository) GetMessagesByConversationID(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error) {
	objID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetMessagesByConversationID.ParseID")
	}

	var msgs []models.Message
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.messages.Find(ctx, bson.M{"conversation_id": objID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetMessagesByConversationID")
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetMessagesByConversationID")
	}
	return msgs, nil
}

func (r *MongoMessageRepository) SetLastMessageAt(ctx context.Context, id string, at time.Time) error {
	return r.updateConversation(ctx, id, bson.M{
		"$set": bson.M{"last_message_at": at},
	}, "messageRepo.SetLastMessageAt")
}

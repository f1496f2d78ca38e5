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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetPostsByUserIDs(ctx context.Context, userIDs []uint, skip, limit int64) ([]models.Post, error)
	CountPostsByUserIDs(ctx context.Context, userIDs []uint) (int64, error)
	UpdatePost(ctx context.Context, id string, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	IncrementLikesCount(ctx context.Context, postID string) error
	DecrementLikesCount(ctx context.Context, postID string) error
	IncrementCommentsCount(ctx context.Context, postID string) error
	DecrementCommentsCount(ctx context.Context, postID string) error
	IncrementSharesCount(ctx context.Context, postID string) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return errors.Wrap(err, "postRepo.CreatePost")
	}
	return nil
}

// GetPostByID retrieves a post by ID from MongoDB. Callers detect a missing
// post with errors.Is against mongo.ErrNoDocuments or primitive.ErrInvalidHex.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrap(err, "postRepo.GetPostByID.ParseID")
	}

	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post); err != nil {
		return nil, errors.Wrap(err, "postRepo.GetPostByID")
	}
	return &post, nil
}

// GetPostsByUserID retrieves one author's posts, newest first
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	return r.findPosts(ctx, bson.M{"user_id": userID}, skip, limit, "postRepo.GetPostsByUserID")
}

// GetPostsByUserIDs retrieves posts by any of the given authors, newest
// first. This is the feed query: callers pass the viewer plus their
// connections.
func (r *MongoPostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []uint, skip, limit int64) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.findPosts(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, skip, limit, "postRepo.GetPostsByUserIDs")
}

// CountPostsByUserIDs counts posts by any of the given authors, the feed's
// pagination total
func (r *MongoPostRepository) CountPostsByUserIDs(ctx context.Context, userIDs []uint) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return 0, errors.Wrap(err, "postRepo.CountPostsByUserIDs")
	}
	return count, nil
}

func (r *MongoPostRepository) findPosts(ctx context.Context, filter bson.M, skip, limit int64, op string) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return posts, nil
}

// UpdatePost updates an existing post in MongoDB
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(err, "postRepo.UpdatePost.ParseID")
	}

	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"content":    post.Content,
			"image_urls": post.ImageURLs,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return errors.Wrap(err, "postRepo.UpdatePost")
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(mongo.ErrNoDocuments, "postRepo.UpdatePost")
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(err, "postRepo.DeletePost.ParseID")
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrap(err, "postRepo.DeletePost")
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(mongo.ErrNoDocuments, "postRepo.DeletePost")
	}
	return nil
}

// IncrementLikesCount increments the likes count of a post
func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, postID string) error {
	return r.adjustCounter(ctx, postID, "likes_count", 1, "postRepo.IncrementLikesCount")
}

// DecrementLikesCount decrements the likes count of a post
func (r *MongoPostRepository) DecrementLikesCount(ctx context.Context, postID string) error {
	return r.adjustCounter(ctx, postID, "likes_count", -1, "postRepo.DecrementLikesCount")
}

// IncrementCommentsCount increments the comments count of a post
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	return r.adjustCounter(ctx, postID, "comments_count", 1, "postRepo.IncrementCommentsCount")
}

// DecrementCommentsCount decrements the comments count of a post
func (r *MongoPostRepository) DecrementCommentsCount(ctx context.Context, postID string) error {
	return r.adjustCounter(ctx, postID, "comments_count", -1, "postRepo.DecrementCommentsCount")
}

// IncrementSharesCount increments the shares count of a post
func (r *MongoPostRepository) IncrementSharesCount(ctx context.Context, postID string) error {
	return r.adjustCounter(ctx, postID, "shares_count", 1, "postRepo.IncrementSharesCount")
}

func (r *MongoPostRepository) adjustCounter(ctx context.Context, postID, field string, delta int, op string) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return errors.Wrap(err, op+".ParseID")
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}}); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

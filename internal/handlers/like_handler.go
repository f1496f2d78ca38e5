package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	fanout         *notify.Fanout
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	fanout *notify.Fanout,
) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		fanout:         fanout,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikes)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if isMissingDoc(err) {
			return httpError(apperrors.ErrPostNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return httpError(apperrors.ErrAlreadyLiked)
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}

	if err := h.likeRepository.CreateLike(like); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.postRepository.IncrementLikesCount(context.Background(), postID)

	if liker, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationPostLike,
			RecipientID: post.UserID,
			SenderID:    currentUserID,
			Message:     liker.Name + " liked your post",
			RefKind:     models.RefKindPost,
			RefID:       postID,
		})
	}

	return c.JSON(http.StatusCreated, like)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if isMissingDoc(err) {
			return httpError(apperrors.ErrPostNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.likeRepository.DeleteLike(postID, currentUserID); err != nil {
		if errors.Is(err, repositories.ErrLikeNotFound) {
			return httpError(apperrors.ErrLikeNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.postRepository.DecrementLikesCount(context.Background(), postID)

	return c.NoContent(http.StatusNoContent)
}

// GetLikes lists the users who liked a post
func (h *LikeHandler) GetLikes(c echo.Context) error {
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		if isMissingDoc(err) {
			return httpError(apperrors.ErrPostNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	likes, err := h.likeRepository.GetLikesByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userIDs := make([]uint, len(likes))
	for i, l := range likes {
		userIDs[i] = l.UserID
	}

	users := make([]models.UserCompact, 0, len(userIDs))
	if fetched, err := h.userRepository.GetUsersByIDs(userIDs); err == nil {
		for _, u := range fetched {
			users = append(users, u.ToCompact())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     postID,
		"likes_count": len(likes),
		"users":       users,
	})
}

package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/internal/social"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	likeRepository repositories.LikeRepository
	graph          *social.Graph
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	graph *social.Graph,
) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		likeRepository: likeRepo,
		graph:          graph,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedPost is a post with author info and user-specific flags
type EnrichedPost struct {
	models.Post
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
}

// enrichPosts attaches author details and the viewer's like state to posts.
// A zero viewerID (unauthenticated) leaves every IsLiked false.
func enrichPosts(
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	viewerID uint,
	posts []models.Post,
) []EnrichedPost {
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool)
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
		postIDs[i] = p.ID.Hex()
	}

	userMap := make(map[uint]models.UserCompact)
	if users, err := userRepo.GetUsersByIDs(authorIDs); err == nil {
		for _, u := range users {
			userMap[u.ID] = u.ToCompact()
		}
	}

	likedMap := make(map[string]bool)
	if viewerID > 0 {
		likedMap, _ = likeRepo.GetLikedPostIDs(viewerID, postIDs)
	}

	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		enriched[i] = EnrichedPost{
			Post:    p,
			Author:  userMap[p.UserID],
			IsLiked: likedMap[p.ID.Hex()],
		}
	}
	return enriched
}

// GetFeed returns posts from the current user and their connections,
// newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	skip := int64((page - 1) * limit)

	connectionIDs, err := h.graph.ConnectionIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorIDs := append(connectionIDs, currentUserID)

	posts, err := h.postRepository.GetPostsByUserIDs(c.Request().Context(), authorIDs, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalItems, err := h.postRepository.CountPostsByUserIDs(c.Request().Context(), authorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enrichPosts(h.userRepository, h.likeRepository, currentUserID, posts),
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      totalItems,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

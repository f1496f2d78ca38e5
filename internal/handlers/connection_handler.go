package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/internal/social"
)

// ConnectionHandler handles HTTP requests for the connection graph
type ConnectionHandler struct {
	graph          *social.Graph
	userRepository repositories.UserRepository
	fanout         *notify.Fanout
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(graph *social.Graph, userRepo repositories.UserRepository, fanout *notify.Fanout) *ConnectionHandler {
	return &ConnectionHandler{
		graph:          graph,
		userRepository: userRepo,
		fanout:         fanout,
	}
}

// RegisterConnectionRoutes registers connection-related routes
func (h *ConnectionHandler) RegisterConnectionRoutes(g *echo.Group) {
	g.POST("/connections/request", h.SendRequest)
	g.PUT("/connections/requests/:userId/accept", h.AcceptRequest)
	g.DELETE("/connections/:userId", h.RemoveConnection) // withdraw, decline or disconnect
	g.GET("/connections", h.GetConnections)
	g.GET("/connections/requests/pending", h.GetPendingRequests)
	g.GET("/connections/requests/sent", h.GetSentRequests)
	g.GET("/connections/status/:userId", h.GetStatus)
}

// SendRequest creates a pending connection request to another user
func (h *ConnectionHandler) SendRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.SendConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conn, err := h.graph.SendRequest(currentUserID, req.RecipientID)
	if err != nil {
		return httpError(err)
	}

	if sender, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationConnectionRequest,
			RecipientID: req.RecipientID,
			SenderID:    currentUserID,
			Message:     sender.Name + " wants to connect",
			RefKind:     models.RefKindUser,
			RefID:       strconv.FormatUint(uint64(currentUserID), 10),
		})
	}

	return c.JSON(http.StatusCreated, conn)
}

// AcceptRequest accepts a pending request sent by :userId
func (h *ConnectionHandler) AcceptRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	requesterID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	conn, err := h.graph.AcceptRequest(currentUserID, uint(requesterID))
	if err != nil {
		return httpError(err)
	}

	if accepter, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationConnectionAccepted,
			RecipientID: uint(requesterID),
			SenderID:    currentUserID,
			Message:     accepter.Name + " accepted your connection request",
			RefKind:     models.RefKindUser,
			RefID:       strconv.FormatUint(uint64(currentUserID), 10),
		})
	}

	return c.JSON(http.StatusOK, conn)
}

// RemoveConnection removes whatever stands between the two users: a sent
// request (withdraw), a received one (decline) or an accepted connection.
// Removing nothing is fine.
func (h *ConnectionHandler) RemoveConnection(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	peerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.graph.RemoveConnection(currentUserID, uint(peerID)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetConnections lists the authenticated user's accepted connections
func (h *ConnectionHandler) GetConnections(c echo.Context) error {
	users, err := h.graph.Connections(getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}

	compact := make([]models.UserCompact, len(users))
	for i, u := range users {
		compact[i] = u.ToCompact()
	}

	return c.JSON(http.StatusOK, echo.Map{"connections": compact, "count": len(compact)})
}

// GetPendingRequests lists incoming pending requests
func (h *ConnectionHandler) GetPendingRequests(c echo.Context) error {
	requests, err := h.graph.PendingRequests(getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// GetSentRequests lists outgoing pending requests
func (h *ConnectionHandler) GetSentRequests(c echo.Context) error {
	requests, err := h.graph.SentRequests(getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// GetStatus reports the relationship with :userId as seen by the caller
func (h *ConnectionHandler) GetStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	peerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	status, err := h.graph.Status(currentUserID, uint(peerID))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/realtime"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// MessageHandler handles conversation and message HTTP requests
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	userRepository    repositories.UserRepository
	hub               *realtime.Hub
	fanout            *notify.Fanout
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
	fanout *notify.Fanout,
) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		userRepository:    userRepo,
		hub:               hub,
		fanout:            fanout,
	}
}

// RegisterMessageRoutes registers conversation and message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/conversations/direct", h.StartDirectConversation)
	g.POST("/conversations/group", h.CreateGroup)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.PUT("/conversations/:id", h.RenameGroup)
	g.POST("/conversations/:id/members", h.AddMember)
	g.DELETE("/conversations/:id/members/:userId", h.RemoveMember)
	g.POST("/conversations/:id/admins", h.PromoteAdmin)
	g.POST("/conversations/:id/leave", h.LeaveGroup)
}

// EnrichedConversation is a conversation with the peer's card attached for
// direct chats
type EnrichedConversation struct {
	models.Conversation
	Peer *models.UserCompact `json:"peer,omitempty"`
}

// loadConversation fetches a conversation and checks the caller belongs to it.
func (h *MessageHandler) loadConversation(c echo.Context, userID uint) (*models.Conversation, error) {
	conv, err := h.messageRepository.GetConversationByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if isMissingDoc(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperrors.ErrNotConversationMember
	}
	return conv, nil
}

// StartDirectConversation opens the conversation with a peer, creating it on
// first contact. The same pair always resolves to the same conversation.
func (h *MessageHandler) StartDirectConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.StartDirectConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.PeerID == currentUserID {
		return httpError(apperrors.ErrSelfConversation)
	}

	if _, err := h.userRepository.GetUserByID(req.PeerID); err != nil {
		return httpError(apperrors.ErrUserNotFound)
	}

	conv, err := h.messageRepository.GetDirectConversation(c.Request().Context(), currentUserID, req.PeerID)
	if err == nil {
		return c.JSON(http.StatusOK, conv)
	}
	if !isMissingDoc(err) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	low, high := models.NormalizePair(currentUserID, req.PeerID)
	conv = &models.Conversation{
		IsGroup:        false,
		DirectKey:      models.DirectConversationKey(currentUserID, req.PeerID),
		ParticipantIDs: []uint{low, high},
		CreatedBy:      currentUserID,
	}

	if err := h.messageRepository.CreateConversation(c.Request().Context(), conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, conv)
}

// CreateGroup creates a group conversation with the caller as first admin
func (h *MessageHandler) CreateGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	participants := []uint{currentUserID}
	seen := map[uint]bool{currentUserID: true}
	for _, id := range req.ParticipantIDs {
		if !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}

	conv := &models.Conversation{
		IsGroup:        true,
		Name:           req.Name,
		ParticipantIDs: participants,
		AdminIDs:       []uint{currentUserID},
		CreatedBy:      currentUserID,
	}

	if err := h.messageRepository.CreateConversation(c.Request().Context(), conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if creator, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		for _, id := range participants {
			_ = h.fanout.Publish(notify.Event{
				Type:        models.NotificationGroupInvite,
				RecipientID: id,
				SenderID:    currentUserID,
				Message:     creator.Name + " added you to " + conv.Name,
				RefKind:     models.RefKindConversation,
				RefID:       conv.ID.Hex(),
			})
		}
	}

	return c.JSON(http.StatusCreated, conv)
}

// GetConversations lists the current user's conversations, most recently
// active first
func (h *MessageHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	convs, err := h.messageRepository.GetConversationsByUserID(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Resolve the other side of each direct conversation in one query.
	peerIDs := make([]uint, 0, len(convs))
	for _, conv := range convs {
		if conv.IsGroup {
			continue
		}
		for _, id := range conv.ParticipantIDs {
			if id != currentUserID {
				peerIDs = append(peerIDs, id)
			}
		}
	}

	userMap := make(map[uint]models.UserCompact)
	if users, err := h.userRepository.GetUsersByIDs(peerIDs); err == nil {
		for _, u := range users {
			userMap[u.ID] = u.ToCompact()
		}
	}

	enriched := make([]EnrichedConversation, len(convs))
	for i, conv := range convs {
		enriched[i] = EnrichedConversation{Conversation: conv}
		if conv.IsGroup {
			continue
		}
		for _, id := range conv.ParticipantIDs {
			if id != currentUserID {
				if peer, ok := userMap[id]; ok {
					enriched[i].Peer = &peer
				}
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"conversations": enriched, "count": len(enriched)})
}

// GetMessages returns a page of messages, newest first
func (h *MessageHandler) GetMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	skip := int64((page - 1) * limit)

	msgs, err := h.messageRepository.GetMessagesByConversationID(c.Request().Context(), conv.ID.Hex(), skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": msgs, "count": len(msgs)})
}

// SendMessage stores a message, pushes it to open sockets in the room and
// notifies the other participants
func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       currentUserID,
		Body:           req.Body,
	}

	if err := h.messageRepository.CreateMessage(c.Request().Context(), msg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.messageRepository.SetLastMessageAt(c.Request().Context(), conv.ID.Hex(), time.Now()); err == nil {
		conv.LastMessageAt = time.Now()
	}

	frame := realtime.NewFrame(realtime.EventNewMessage, map[string]interface{}{
		"id":             msg.ID.Hex(),
		"conversationId": conv.ID.Hex(),
		"senderId":       currentUserID,
		"body":           msg.Body,
		"createdAt":      msg.CreatedAt,
	})
	h.hub.EmitToConversation(conv.ID.Hex(), frame, uuid.Nil)

	if sender, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		text := sender.Name + " sent you a message"
		if conv.IsGroup {
			text = sender.Name + " in " + conv.Name
		}
		for _, id := range conv.ParticipantIDs {
			_ = h.fanout.Publish(notify.Event{
				Type:        models.NotificationMessage,
				RecipientID: id,
				SenderID:    currentUserID,
				Message:     text,
				RefKind:     models.RefKindConversation,
				RefID:       conv.ID.Hex(),
			})
		}
	}

	return c.JSON(http.StatusCreated, msg)
}

// RenameGroup changes a group's name, admins only
func (h *MessageHandler) RenameGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.RenameGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}
	if !conv.IsGroup {
		return httpError(apperrors.ErrNotGroupConversation)
	}
	if !conv.IsAdmin(currentUserID) {
		return httpError(apperrors.ErrGroupAdminOnly)
	}

	if err := h.messageRepository.UpdateGroupName(c.Request().Context(), conv.ID.Hex(), req.Name); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	oldName := conv.Name
	conv.Name = req.Name

	if admin, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		for _, id := range conv.ParticipantIDs {
			_ = h.fanout.Publish(notify.Event{
				Type:        models.NotificationGroupUpdate,
				RecipientID: id,
				SenderID:    currentUserID,
				Message:     admin.Name + " renamed " + oldName + " to " + req.Name,
				RefKind:     models.RefKindConversation,
				RefID:       conv.ID.Hex(),
			})
		}
	}

	return c.JSON(http.StatusOK, conv)
}

// AddMember adds a user to a group, admins only
func (h *MessageHandler) AddMember(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.GroupMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}
	if !conv.IsGroup {
		return httpError(apperrors.ErrNotGroupConversation)
	}
	if !conv.IsAdmin(currentUserID) {
		return httpError(apperrors.ErrGroupAdminOnly)
	}
	if conv.IsParticipant(req.UserID) {
		return httpError(apperrors.ErrAlreadyGroupMember)
	}
	if _, err := h.userRepository.GetUserByID(req.UserID); err != nil {
		return httpError(apperrors.ErrUserNotFound)
	}

	if err := h.messageRepository.AddParticipant(c.Request().Context(), conv.ID.Hex(), req.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if admin, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationGroupInvite,
			RecipientID: req.UserID,
			SenderID:    currentUserID,
			Message:     admin.Name + " added you to " + conv.Name,
			RefKind:     models.RefKindConversation,
			RefID:       conv.ID.Hex(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RemoveMember removes a user from a group, admins only
func (h *MessageHandler) RemoveMember(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}
	if !conv.IsGroup {
		return httpError(apperrors.ErrNotGroupConversation)
	}
	if !conv.IsAdmin(currentUserID) {
		return httpError(apperrors.ErrGroupAdminOnly)
	}
	if uint(targetID) == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Use the leave endpoint to remove yourself")
	}
	if !conv.IsParticipant(uint(targetID)) {
		return httpError(apperrors.ErrMemberNotInGroup)
	}

	if err := h.messageRepository.RemoveParticipant(c.Request().Context(), conv.ID.Hex(), uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_ = h.fanout.Publish(notify.Event{
		Type:        models.NotificationGroupRemove,
		RecipientID: uint(targetID),
		SenderID:    currentUserID,
		Message:     "You were removed from " + conv.Name,
		RefKind:     models.RefKindConversation,
		RefID:       conv.ID.Hex(),
	})

	return c.NoContent(http.StatusNoContent)
}

// PromoteAdmin grants a group member admin rights, admins only
func (h *MessageHandler) PromoteAdmin(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.GroupMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}
	if !conv.IsGroup {
		return httpError(apperrors.ErrNotGroupConversation)
	}
	if !conv.IsAdmin(currentUserID) {
		return httpError(apperrors.ErrGroupAdminOnly)
	}
	if !conv.IsParticipant(req.UserID) {
		return httpError(apperrors.ErrMemberNotInGroup)
	}

	if err := h.messageRepository.AddAdmin(c.Request().Context(), conv.ID.Hex(), req.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if admin, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		_ = h.fanout.Publish(notify.Event{
			Type:        models.NotificationGroupAdmin,
			RecipientID: req.UserID,
			SenderID:    currentUserID,
			Message:     admin.Name + " made you an admin of " + conv.Name,
			RefKind:     models.RefKindConversation,
			RefID:       conv.ID.Hex(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// LeaveGroup removes the caller from a group. If the last admin leaves, the
// longest-standing remaining member is promoted so the group stays manageable.
func (h *MessageHandler) LeaveGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	conv, err := h.loadConversation(c, currentUserID)
	if err != nil {
		return httpError(err)
	}
	if !conv.IsGroup {
		return httpError(apperrors.ErrNotGroupConversation)
	}

	if err := h.messageRepository.RemoveParticipant(c.Request().Context(), conv.ID.Hex(), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	remaining := make([]uint, 0, len(conv.ParticipantIDs))
	for _, id := range conv.ParticipantIDs {
		if id != currentUserID {
			remaining = append(remaining, id)
		}
	}

	admins := make([]uint, 0, len(conv.AdminIDs))
	for _, id := range conv.AdminIDs {
		if id != currentUserID {
			admins = append(admins, id)
		}
	}

	if len(admins) == 0 && len(remaining) > 0 {
		if err := h.messageRepository.AddAdmin(c.Request().Context(), conv.ID.Hex(), remaining[0]); err == nil {
			admins = append(admins, remaining[0])
		}
	}

	if leaver, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		for _, id := range admins {
			_ = h.fanout.Publish(notify.Event{
				Type:        models.NotificationGroupLeave,
				RecipientID: id,
				SenderID:    currentUserID,
				Message:     leaver.Name + " left " + conv.Name,
				RefKind:     models.RefKindConversation,
				RefID:       conv.ID.Hex(),
			})
		}
	}

	return c.NoContent(http.StatusNoContent)
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

// Client frame types
const (
	frameAuthenticate      = "authenticate"
	frameJoinConversation  = "joinConversation"
	frameLeaveConversation = "leaveConversation"
	frameTyping            = "typing"
)

// Server frame types
const (
	EventAuthenticated       = "authenticated"
	EventReceiveNotification = "receiveNotification"
	EventNewMessage          = "newMessage"
	EventTyping              = "typing"
	EventError               = "error"
)

// authWindow is how long a fresh socket gets to send its authenticate frame.
const authWindow = 10 * time.Second

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}

// MembershipChecker guards conversation rooms.
type MembershipChecker interface {
	IsMember(ctx context.Context, conversationID string, userID uint) (bool, error)
}

// Hub owns every live socket on this node. Sockets arrive unauthenticated,
// prove themselves with an authenticate frame, get bound in the session
// registry and can then join conversation rooms. The hub also subscribes to
// the delivery backbone so sessions on this node receive pushes that
// originated elsewhere.
type Hub struct {
	registry Registry
	backbone Backbone
	verifier TokenVerifier
	members  MembershipChecker
	nodeID   string
	logger   *slog.Logger

	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
	rooms map[string]map[uuid.UUID]struct{}

	wg         sync.WaitGroup
	backboneFn func(Delivery)
}

// NewHub creates a hub for this node. An empty nodeID gets a generated one.
func NewHub(registry Registry, backbone Backbone, verifier TokenVerifier, members MembershipChecker, nodeID string, logger *slog.Logger) *Hub {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &Hub{
		registry: registry,
		backbone: backbone,
		verifier: verifier,
		members:  members,
		nodeID:   nodeID,
		logger:   logger.With(slog.String("component", "realtime_hub"), slog.String("nodeID", nodeID)),
		conns:    make(map[uuid.UUID]*Conn),
		rooms:    make(map[string]map[uuid.UUID]struct{}),
	}
}

// NodeID identifies this hub on the delivery backbone.
func (h *Hub) NodeID() string {
	return h.nodeID
}

// Start subscribes the hub to the delivery backbone.
func (h *Hub) Start() error {
	h.backboneFn = h.onDelivery
	return h.backbone.Subscribe(h.backboneFn)
}

// Stop unsubscribes from the backbone and closes every live socket.
func (h *Hub) Stop() {
	if h.backboneFn != nil {
		if err := h.backbone.Unsubscribe(h.backboneFn); err != nil {
			h.logger.Warn("backbone unsubscribe failed", slog.Any("error", err))
		}
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Close(errors.New("server shutting down"))
	}
	h.wg.Wait()
}

// onDelivery handles a frame republished by some node. Deliveries this node
// originated were already pushed to its local sessions.
func (h *Hub) onDelivery(d Delivery) {
	if d.Origin == h.nodeID {
		return
	}
	h.SendToUser(d.RecipientID, d.Payload)
}

// HandleWS upgrades the request to a WebSocket and runs the connection until
// it closes.
func (h *Hub) HandleWS(c echo.Context) error {
	ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("failed to accept websocket connection", slog.Any("error", err))
		return nil
	}

	conn := NewConn(c.Request().Context(), &h.wg, ws, ConnConfig{}, h.handleFrame, h.handleClose, h.logger)

	h.mu.Lock()
	h.conns[conn.ID()] = conn
	h.mu.Unlock()

	conn.Run()

	// Drop sockets that never authenticate.
	connID := conn.ID()
	timer := time.AfterFunc(authWindow, func() {
		if _, ok := h.registry.UserOf(connID); !ok {
			conn.Send(errorFrame("authentication timed out"))
			conn.Close(errors.New("authentication timeout"))
		}
	})
	defer timer.Stop()

	<-conn.Done()
	return nil
}

func (h *Hub) conn(connID uuid.UUID) *Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[connID]
}

func (h *Hub) handleFrame(ctx context.Context, connID uuid.UUID, msg []byte) {
	conn := h.conn(connID)
	if conn == nil {
		return
	}

	frameType := gjson.GetBytes(msg, "type").String()
	if frameType == frameAuthenticate {
		h.authenticate(conn, msg)
		return
	}

	userID, authed := h.registry.UserOf(connID)
	if !authed {
		conn.Send(errorFrame("not authenticated"))
		return
	}

	switch frameType {
	case frameJoinConversation, frameLeaveConversation, frameTyping:
		conversationID := gjson.GetBytes(msg, "conversationId").String()
		if conversationID == "" {
			conn.Send(errorFrame("conversationId is required"))
			return
		}
		switch frameType {
		case frameJoinConversation:
			h.joinRoom(ctx, conn, userID, conversationID)
		case frameLeaveConversation:
			h.leaveRoom(connID, conversationID)
		case frameTyping:
			h.relayTyping(connID, userID, conversationID)
		}
	default:
		conn.Send(errorFrame("unknown frame type"))
	}
}

func (h *Hub) authenticate(conn *Conn, msg []byte) {
	token := gjson.GetBytes(msg, "token").String()
	if token == "" {
		conn.Send(errorFrame("token is required"))
		return
	}

	userID, err := h.verifier.VerifyToken(token)
	if err != nil {
		conn.Send(errorFrame("invalid token"))
		conn.Close(err)
		return
	}

	h.registry.Bind(userID, conn.ID())
	conn.Send(NewFrame(EventAuthenticated, map[string]interface{}{"userId": userID}))
	h.logger.Info("session authenticated", slog.Uint64("userID", uint64(userID)), slog.String("connID", conn.ID().String()))
}

func (h *Hub) joinRoom(ctx context.Context, conn *Conn, userID uint, conversationID string) {
	ok, err := h.members.IsMember(ctx, conversationID, userID)
	if err != nil {
		h.logger.Error("membership check failed", slog.Any("error", err))
		conn.Send(errorFrame("could not join conversation"))
		return
	}
	if !ok {
		conn.Send(errorFrame("not a member of this conversation"))
		return
	}

	h.mu.Lock()
	room, exists := h.rooms[conversationID]
	if !exists {
		room = make(map[uuid.UUID]struct{})
		h.rooms[conversationID] = room
	}
	room[conn.ID()] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leaveRoom(connID uuid.UUID, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, exists := h.rooms[conversationID]; exists {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

func (h *Hub) relayTyping(senderConn uuid.UUID, userID uint, conversationID string) {
	frame := NewFrame(EventTyping, map[string]interface{}{
		"conversationId": conversationID,
		"userId":         userID,
	})
	h.EmitToConversation(conversationID, frame, senderConn)
}

// handleClose unbinds the session and scrubs the socket from every room.
func (h *Hub) handleClose(connID uuid.UUID, err error) {
	h.registry.Unbind(connID)

	h.mu.Lock()
	delete(h.conns, connID)
	for conversationID, room := range h.rooms {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	h.mu.Unlock()
}

// SendToUser writes the frame to every live session of the user on this node
// and reports how many sessions were hit.
func (h *Hub) SendToUser(userID uint, frame []byte) int {
	sessions := h.registry.SessionsFor(userID)
	sent := 0
	for _, connID := range sessions {
		if conn := h.conn(connID); conn != nil {
			conn.Send(frame)
			sent++
		}
	}
	return sent
}

// EmitToConversation sends the frame to every socket currently joined to the
// conversation, skipping except when it is a real connection id.
func (h *Hub) EmitToConversation(conversationID string, frame []byte, except uuid.UUID) {
	h.mu.RLock()
	room := h.rooms[conversationID]
	targets := make([]*Conn, 0, len(room))
	for connID := range room {
		if connID == except {
			continue
		}
		if conn, ok := h.conns[connID]; ok {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		conn.Send(frame)
	}
}

// NewFrame marshals a server frame: the envelope type names the event, the
// payload carries its fields.
func NewFrame(event string, payload map[string]interface{}) []byte {
	b, err := json.Marshal(map[string]interface{}{"type": event, "payload": payload})
	if err != nil {
		return []byte(`{"type":"` + event + `"}`)
	}
	return b
}

func errorFrame(message string) []byte {
	return NewFrame(EventError, map[string]interface{}{"message": message})
}

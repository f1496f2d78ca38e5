package social

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// Relationship of two users as seen from one side.
const (
	StatusNone            = "none"
	StatusPendingSent     = "pending_sent"
	StatusPendingReceived = "pending_received"
	StatusConnected       = "connected"
)

// PendingRequest pairs the other user with the moment the request was made.
type PendingRequest struct {
	User        models.User `json:"user"`
	RequestedAt time.Time   `json:"requested_at"`
}

// Graph implements the connection state machine over the single-row pair
// model: none -> pending (directional) -> accepted (symmetric), with remove
// returning any state to none.
type Graph struct {
	connections repositories.ConnectionRepository
	users       repositories.UserRepository
}

// NewGraph creates a new Graph service
func NewGraph(connections repositories.ConnectionRepository, users repositories.UserRepository) *Graph {
	return &Graph{connections: connections, users: users}
}

// SendRequest creates a pending connection from requester to recipient.
func (g *Graph) SendRequest(requesterID, recipientID uint) (*models.Connection, error) {
	if requesterID == recipientID {
		return nil, apperrors.ErrSelfConnection
	}

	if _, err := g.users.GetUserByID(recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load recipient", err)
	}

	if existing, err := g.connections.GetByPair(requesterID, recipientID); err == nil {
		return nil, pairConflict(existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check existing connection", err)
	}

	conn := &models.Connection{
		UserLowID:   requesterID,
		UserHighID:  recipientID,
		RequesterID: requesterID,
		Status:      models.ConnectionStatusPending,
	}
	if err := g.connections.Create(conn); err != nil {
		// A concurrent request can hit the pair index between the check and
		// the insert; report whatever row won.
		if existing, lookupErr := g.connections.GetByPair(requesterID, recipientID); lookupErr == nil {
			return nil, pairConflict(existing)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create connection request", err)
	}
	return conn, nil
}

func pairConflict(conn *models.Connection) error {
	if conn.Status == models.ConnectionStatusAccepted {
		return apperrors.ErrAlreadyConnected
	}
	return apperrors.ErrRequestPending
}

// AcceptRequest lets recipient accept the pending request sent by requester.
// Only the addressed side can accept; the requester accepting their own
// request looks like a missing request, not a forbidden one.
func (g *Graph) AcceptRequest(recipientID, requesterID uint) (*models.Connection, error) {
	conn, err := g.connections.GetByPair(recipientID, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load connection request", err)
	}

	if conn.RequesterID != requesterID {
		return nil, apperrors.ErrRequestNotFound
	}
	if conn.Status != models.ConnectionStatusPending {
		return nil, apperrors.ErrRequestNotPending
	}

	now := time.Now()
	rows, err := g.connections.AcceptPending(recipientID, requesterID, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to accept connection request", err)
	}
	if rows == 0 {
		return nil, apperrors.ErrRequestNotPending
	}

	conn.Status = models.ConnectionStatusAccepted
	conn.AcceptedAt = &now
	return conn, nil
}

// RemoveConnection deletes whatever exists between the two users, pending or
// accepted. Removing nothing is a success; remove is how a recipient declines
// a request.
func (g *Graph) RemoveConnection(userID, peerID uint) error {
	if userID == peerID {
		return nil
	}
	if _, err := g.connections.DeleteByPair(userID, peerID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to remove connection", err)
	}
	return nil
}

// Connections returns the user's accepted peers, most recently connected first.
func (g *Graph) Connections(userID uint) ([]models.User, error) {
	conns, err := g.connections.ListAccepted(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list connections", err)
	}

	peerIDs := make([]uint, 0, len(conns))
	for _, c := range conns {
		peerIDs = append(peerIDs, c.PeerOf(userID))
	}

	users, err := g.users.GetUsersByIDs(peerIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load connected users", err)
	}

	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	ordered := make([]models.User, 0, len(peerIDs))
	for _, id := range peerIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// ConnectionIDs returns the ids of the user's accepted peers.
func (g *Graph) ConnectionIDs(userID uint) ([]uint, error) {
	conns, err := g.connections.ListAccepted(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list connections", err)
	}
	ids := make([]uint, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.PeerOf(userID))
	}
	return ids, nil
}

// PendingRequests returns requests waiting on this user, newest first. Only
// the recipient side sees a pending request here.
func (g *Graph) PendingRequests(userID uint) ([]PendingRequest, error) {
	conns, err := g.connections.ListPendingIncoming(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list pending requests", err)
	}
	return g.toPendingRequests(conns, func(c models.Connection) uint { return c.RequesterID })
}

// SentRequests returns requests this user has sent that are still pending.
func (g *Graph) SentRequests(userID uint) ([]PendingRequest, error) {
	conns, err := g.connections.ListPendingOutgoing(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list sent requests", err)
	}
	return g.toPendingRequests(conns, func(c models.Connection) uint { return c.RecipientID() })
}

func (g *Graph) toPendingRequests(conns []models.Connection, pick func(models.Connection) uint) ([]PendingRequest, error) {
	ids := make([]uint, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, pick(c))
	}

	users, err := g.users.GetUsersByIDs(ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load request users", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	requests := make([]PendingRequest, 0, len(conns))
	for _, c := range conns {
		if u, ok := byID[pick(c)]; ok {
			requests = append(requests, PendingRequest{User: u, RequestedAt: c.CreatedAt})
		}
	}
	return requests, nil
}

// Status reports the relationship between userID and peerID from userID's side.
func (g *Graph) Status(userID, peerID uint) (string, error) {
	if userID == peerID {
		return StatusNone, nil
	}

	conn, err := g.connections.GetByPair(userID, peerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusNone, nil
		}
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to load connection status", err)
	}

	if conn.Status == models.ConnectionStatusAccepted {
		return StatusConnected, nil
	}
	if conn.RequesterID == userID {
		return StatusPendingSent, nil
	}
	return StatusPendingReceived, nil
}

// ConnectionCount returns how many accepted connections the user has.
func (g *Graph) ConnectionCount(userID uint) (int64, error) {
	count, err := g.connections.CountAccepted(userID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "failed to count connections", err)
	}
	return count, nil
}

package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry is the session registry: which live sockets belong to which user.
// One user may hold many sessions (tabs, devices); a session belongs to at
// most one user.
type Registry interface {
	Bind(userID uint, connID uuid.UUID)
	Unbind(connID uuid.UUID) (uint, bool)
	UserOf(connID uuid.UUID) (uint, bool)
	SessionsFor(userID uint) []uuid.UUID
	Online(userID uint) bool
}

type memoryRegistry struct {
	mu     sync.RWMutex
	byConn map[uuid.UUID]uint
	byUser map[uint]map[uuid.UUID]struct{}
	logger *slog.Logger
}

// NewMemoryRegistry creates a process-local session registry.
func NewMemoryRegistry(logger *slog.Logger) Registry {
	return &memoryRegistry{
		byConn: make(map[uuid.UUID]uint),
		byUser: make(map[uint]map[uuid.UUID]struct{}),
		logger: logger.With(slog.String("component", "session_registry")),
	}
}

// Bind attaches a session to a user. Re-binding an already bound session
// moves it, so a socket that re-authenticates never counts twice.
func (r *memoryRegistry) Bind(userID uint, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[connID]; ok {
		r.detach(prev, connID)
	}

	r.byConn[connID] = userID
	sessions, ok := r.byUser[userID]
	if !ok {
		sessions = make(map[uuid.UUID]struct{})
		r.byUser[userID] = sessions
	}
	sessions[connID] = struct{}{}

	r.logger.Debug("session bound", slog.Uint64("userID", uint64(userID)), slog.String("connID", connID.String()))
}

// Unbind detaches a session and reports which user it belonged to.
// Unknown sessions are a no-op.
func (r *memoryRegistry) Unbind(connID uuid.UUID) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return 0, false
	}
	delete(r.byConn, connID)
	r.detach(userID, connID)

	r.logger.Debug("session unbound", slog.Uint64("userID", uint64(userID)), slog.String("connID", connID.String()))
	return userID, true
}

// detach removes the session from the user's set, dropping the set once empty.
// Caller holds the write lock.
func (r *memoryRegistry) detach(userID uint, connID uuid.UUID) {
	if sessions, ok := r.byUser[userID]; ok {
		delete(sessions, connID)
		if len(sessions) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *memoryRegistry) UserOf(connID uuid.UUID) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[connID]
	return userID, ok
}

// SessionsFor snapshots the user's live session ids.
func (r *memoryRegistry) SessionsFor(userID uint) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *memoryRegistry) Online(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

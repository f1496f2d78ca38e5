package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
	"github.com/pro-connect/backend/pkg/apperrors"
)

func newTestGraph(t *testing.T) (*Graph, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Connection{}))

	return NewGraph(
		repositories.NewPostgresConnectionRepository(db),
		repositories.NewPostgresUserRepository(db),
	), db
}

func createUser(t *testing.T, db *gorm.DB, name, username string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestSendRequest(t *testing.T) {
	t.Run("happy path - creates a directional pending request", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		conn, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusPending, conn.Status)
		assert.Equal(t, alice.ID, conn.RequesterID)

		// Only the recipient sees it as incoming
		incoming, err := graph.PendingRequests(bob.ID)
		require.NoError(t, err)
		require.Len(t, incoming, 1)
		assert.Equal(t, alice.ID, incoming[0].User.ID)

		incoming, err = graph.PendingRequests(alice.ID)
		require.NoError(t, err)
		assert.Empty(t, incoming)

		// Only the requester sees it as sent
		sent, err := graph.SentRequests(alice.ID)
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, bob.ID, sent[0].User.ID)

		sent, err = graph.SentRequests(bob.ID)
		require.NoError(t, err)
		assert.Empty(t, sent)
	})

	t.Run("self request is rejected", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")

		_, err := graph.SendRequest(alice.ID, alice.ID)
		assert.ErrorIs(t, err, apperrors.ErrSelfConnection)
	})

	t.Run("unknown recipient is rejected", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")

		_, err := graph.SendRequest(alice.ID, alice.ID+999)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("duplicate request conflicts in both directions", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)

		_, err = graph.SendRequest(alice.ID, bob.ID)
		assert.ErrorIs(t, err, apperrors.ErrRequestPending)

		_, err = graph.SendRequest(bob.ID, alice.ID)
		assert.ErrorIs(t, err, apperrors.ErrRequestPending)
	})

	t.Run("request between connected users conflicts", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = graph.AcceptRequest(bob.ID, alice.ID)
		require.NoError(t, err)

		_, err = graph.SendRequest(bob.ID, alice.ID)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyConnected)
	})
}

func TestAcceptRequest(t *testing.T) {
	t.Run("happy path - both sides become connected", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)

		conn, err := graph.AcceptRequest(bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStatusAccepted, conn.Status)
		require.NotNil(t, conn.AcceptedAt)

		aliceConns, err := graph.Connections(alice.ID)
		require.NoError(t, err)
		require.Len(t, aliceConns, 1)
		assert.Equal(t, bob.ID, aliceConns[0].ID)

		bobConns, err := graph.Connections(bob.ID)
		require.NoError(t, err)
		require.Len(t, bobConns, 1)
		assert.Equal(t, alice.ID, bobConns[0].ID)

		// The pending request is gone from both views
		incoming, err := graph.PendingRequests(bob.ID)
		require.NoError(t, err)
		assert.Empty(t, incoming)
		sent, err := graph.SentRequests(alice.ID)
		require.NoError(t, err)
		assert.Empty(t, sent)
	})

	t.Run("requester cannot accept their own request", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)

		// From Alice's side there is no pending request sent by Bob
		_, err = graph.AcceptRequest(alice.ID, bob.ID)
		assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	})

	t.Run("accept without a request fails", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.AcceptRequest(bob.ID, alice.ID)
		assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	})

	t.Run("accept twice fails on the second attempt", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = graph.AcceptRequest(bob.ID, alice.ID)
		require.NoError(t, err)

		_, err = graph.AcceptRequest(bob.ID, alice.ID)
		assert.ErrorIs(t, err, apperrors.ErrRequestNotPending)
	})
}

func TestRemoveConnection(t *testing.T) {
	t.Run("remove is idempotent", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = graph.AcceptRequest(bob.ID, alice.ID)
		require.NoError(t, err)

		require.NoError(t, graph.RemoveConnection(alice.ID, bob.ID))
		require.NoError(t, graph.RemoveConnection(alice.ID, bob.ID))

		status, err := graph.Status(alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusNone, status)
	})

	t.Run("recipient declines by removing the pending request", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		require.NoError(t, graph.RemoveConnection(bob.ID, alice.ID))

		incoming, err := graph.PendingRequests(bob.ID)
		require.NoError(t, err)
		assert.Empty(t, incoming)

		// The pair is free again, so Alice may ask once more
		_, err = graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
	})

	t.Run("removal after accept frees the pair for a new request", func(t *testing.T) {
		graph, db := newTestGraph(t)
		alice := createUser(t, db, "Alice", "alice")
		bob := createUser(t, db, "Bob", "bob")

		_, err := graph.SendRequest(alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = graph.AcceptRequest(bob.ID, alice.ID)
		require.NoError(t, err)
		require.NoError(t, graph.RemoveConnection(bob.ID, alice.ID))

		_, err = graph.SendRequest(bob.ID, alice.ID)
		require.NoError(t, err)

		status, err := graph.Status(alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPendingReceived, status)
	})
}

func TestStatus(t *testing.T) {
	graph, db := newTestGraph(t)
	alice := createUser(t, db, "Alice", "alice")
	bob := createUser(t, db, "Bob", "bob")
	carol := createUser(t, db, "Carol", "carol")

	status, err := graph.Status(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)

	_, err = graph.SendRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	status, err = graph.Status(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingSent, status)

	status, err = graph.Status(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReceived, status)

	_, err = graph.AcceptRequest(bob.ID, alice.ID)
	require.NoError(t, err)

	status, err = graph.Status(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, status)
	status, err = graph.Status(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, status)

	// An uninvolved user sees nothing
	status, err = graph.Status(carol.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)

	count, err := graph.ConnectionCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

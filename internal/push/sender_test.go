package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
)

type fakeFCMClient struct {
	mu         sync.Mutex
	messages   []*messaging.MulticastMessage
	failTokens map[string]error
	err        error
}

func (c *fakeFCMClient) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	if c.err != nil {
		return nil, c.err
	}
	resp := &messaging.BatchResponse{Responses: make([]*messaging.SendResponse, len(message.Tokens))}
	for i, token := range message.Tokens {
		if failure, ok := c.failTokens[token]; ok {
			resp.Responses[i] = &messaging.SendResponse{Error: failure}
			resp.FailureCount++
		} else {
			resp.Responses[i] = &messaging.SendResponse{Success: true, MessageID: "mid"}
			resp.SuccessCount++
		}
	}
	return resp, nil
}

func (c *fakeFCMClient) sent() []*messaging.MulticastMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*messaging.MulticastMessage(nil), c.messages...)
}

func newTestSender(t *testing.T, client *fakeFCMClient) (*Sender, repositories.DeviceTokenRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DeviceToken{}))

	tokens := repositories.NewPostgresDeviceTokenRepository(db)
	return NewSender(client, tokens, slog.Default()), tokens
}

func TestPushToUser(t *testing.T) {
	t.Run("happy path - multicasts to every registered device", func(t *testing.T) {
		client := &fakeFCMClient{}
		sender, tokens := newTestSender(t, client)
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 1, Token: "tok-phone", Platform: "android"}))
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 1, Token: "tok-tablet", Platform: "ios"}))
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 2, Token: "tok-other", Platform: "android"}))

		sender.PushToUser(1, "New message", "Bob: hey", map[string]string{"type": models.NotificationMessage})

		sent := client.sent()
		require.Len(t, sent, 1)
		assert.ElementsMatch(t, []string{"tok-phone", "tok-tablet"}, sent[0].Tokens)
		assert.Equal(t, "New message", sent[0].Notification.Title)
		assert.Equal(t, "Bob: hey", sent[0].Notification.Body)
		assert.Equal(t, models.NotificationMessage, sent[0].Data["type"])
	})

	t.Run("no registered devices, no send", func(t *testing.T) {
		client := &fakeFCMClient{}
		sender, _ := newTestSender(t, client)

		sender.PushToUser(1, "title", "body", nil)
		assert.Empty(t, client.sent())
	})

	t.Run("unregistered tokens are pruned", func(t *testing.T) {
		errTokenGone := errors.New("registration-token-not-registered")
		orig := deadToken
		deadToken = func(err error) bool { return errors.Is(err, errTokenGone) }
		defer func() { deadToken = orig }()

		client := &fakeFCMClient{failTokens: map[string]error{"tok-dead": errTokenGone}}
		sender, tokens := newTestSender(t, client)
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 1, Token: "tok-alive", Platform: "android"}))
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 1, Token: "tok-dead", Platform: "ios"}))

		sender.PushToUser(1, "title", "body", nil)

		remaining, err := tokens.GetTokensByUserID(1)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "tok-alive", remaining[0].Token)
	})

	t.Run("transport failure is swallowed", func(t *testing.T) {
		client := &fakeFCMClient{err: errors.New("fcm unavailable")}
		sender, tokens := newTestSender(t, client)
		require.NoError(t, tokens.Upsert(&models.DeviceToken{UserID: 1, Token: "tok-phone", Platform: "android"}))

		sender.PushToUser(1, "title", "body", nil)

		// Tokens survive an outage
		remaining, err := tokens.GetTokensByUserID(1)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

package push

import (
	"context"
	"log/slog"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/pro-connect/backend/internal/notify"
	"github.com/pro-connect/backend/internal/repositories"
)

// Client is the slice of the FCM messaging API the sender uses.
// *messaging.Client implements it.
type Client interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// deadToken reports whether a per-token send error means the registration no
// longer exists and the token should be dropped.
var deadToken = messaging.IsUnregistered

// Sender delivers notifications to a user's registered devices through FCM.
// Sends are fire and forget: failures are logged, never surfaced to the
// caller, and registrations FCM reports gone are pruned on the spot.
type Sender struct {
	client  Client
	tokens  repositories.DeviceTokenRepository
	timeout time.Duration
	logger  *slog.Logger
}

var _ notify.DevicePusher = (*Sender)(nil)

func NewSender(client Client, tokens repositories.DeviceTokenRepository, logger *slog.Logger) *Sender {
	return &Sender{
		client:  client,
		tokens:  tokens,
		timeout: 10 * time.Second,
		logger:  logger.With(slog.String("component", "device_push")),
	}
}

// PushToUser sends one notification to every device the user has registered.
func (s *Sender) PushToUser(userID uint, title, body string, data map[string]string) {
	registrations, err := s.tokens.GetTokensByUserID(userID)
	if err != nil {
		s.logger.Error("failed to load device tokens",
			slog.Uint64("userID", uint64(userID)),
			slog.Any("error", err))
		return
	}
	if len(registrations) == 0 {
		return
	}

	tokens := make([]string, len(registrations))
	for i, registration := range registrations {
		tokens[i] = registration.Token
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		s.logger.Error("device push failed",
			slog.Uint64("userID", uint64(userID)),
			slog.Any("error", err))
		return
	}

	for i, response := range resp.Responses {
		if response.Success {
			continue
		}
		if deadToken(response.Error) {
			if err := s.tokens.DeleteToken(tokens[i]); err != nil {
				s.logger.Error("failed to prune dead device token", slog.Any("error", err))
			}
			continue
		}
		s.logger.Warn("device push rejected",
			slog.Uint64("userID", uint64(userID)),
			slog.Any("error", response.Error))
	}

	s.logger.Debug("device push done",
		slog.Uint64("userID", uint64(userID)),
		slog.Int("success", resp.SuccessCount),
		slog.Int("failure", resp.FailureCount))
}

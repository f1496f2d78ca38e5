package notify

import (
	"log/slog"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/realtime"
)

// Event is one thing that happened, addressed to one recipient. Producers
// build an Event per recipient and hand it to Fanout; they never touch the
// ledger or sockets themselves.
type Event struct {
	Type        string
	RecipientID uint
	SenderID    uint
	Message     string
	RefKind     string
	RefID       string
}

// Appender persists notification records. Satisfied by *Ledger.
type Appender interface {
	Append(n *models.Notification) error
}

// Pusher writes a frame to a user's live sessions on this node. Satisfied by
// *realtime.Hub.
type Pusher interface {
	SendToUser(userID uint, frame []byte) int
}

// DevicePusher forwards the event to a user's registered devices.
type DevicePusher interface {
	PushToUser(userID uint, title, body string, data map[string]string)
}

// Fanout is the single chokepoint between something happening and a user
// hearing about it: suppress self-events, persist to the ledger, push to
// local sessions, republish on the backbone for other nodes, then hand off
// to device push.
type Fanout struct {
	ledger   Appender
	pusher   Pusher
	backbone realtime.Backbone
	origin   string
	devices  DevicePusher
	logger   *slog.Logger
}

// NewFanout wires the fan-out pipeline. devices may be nil when FCM is not
// configured.
func NewFanout(ledger Appender, pusher Pusher, backbone realtime.Backbone, origin string, devices DevicePusher, logger *slog.Logger) *Fanout {
	return &Fanout{
		ledger:   ledger,
		pusher:   pusher,
		backbone: backbone,
		origin:   origin,
		devices:  devices,
		logger:   logger.With(slog.String("component", "notification_fanout")),
	}
}

// Publish runs the pipeline for one event. An event a user triggered about
// themselves produces nothing at all. When the ledger write fails nothing is
// pushed: a notification a user could never find again must not flash by
// once.
func (f *Fanout) Publish(event Event) error {
	if event.RecipientID == event.SenderID {
		return nil
	}

	n := &models.Notification{
		RecipientID: event.RecipientID,
		SenderID:    event.SenderID,
		Type:        event.Type,
		Message:     event.Message,
		RefKind:     event.RefKind,
		RefID:       event.RefID,
	}
	if err := f.ledger.Append(n); err != nil {
		f.logger.Error("notification dropped, ledger write failed",
			slog.String("type", event.Type),
			slog.Uint64("recipientID", uint64(event.RecipientID)),
			slog.Any("error", err))
		return err
	}

	frame := realtime.NewFrame(realtime.EventReceiveNotification, map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"message":   n.Message,
		"senderId":  n.SenderID,
		"refKind":   n.RefKind,
		"refId":     n.RefID,
		"createdAt": n.CreatedAt,
	})

	delivered := f.pusher.SendToUser(event.RecipientID, frame)
	f.backbone.Publish(realtime.Delivery{
		Origin:      f.origin,
		RecipientID: event.RecipientID,
		Payload:     frame,
	})

	if f.devices != nil {
		go f.devices.PushToUser(event.RecipientID, pushTitle(event.Type), event.Message, map[string]string{
			"type":    event.Type,
			"refKind": event.RefKind,
			"refId":   event.RefID,
		})
	}

	f.logger.Debug("notification published",
		slog.String("type", event.Type),
		slog.Uint64("recipientID", uint64(event.RecipientID)),
		slog.Int("localSessions", delivered))
	return nil
}

// pushTitle maps a notification type to the device push headline.
func pushTitle(eventType string) string {
	switch eventType {
	case models.NotificationConnectionRequest:
		return "New connection request"
	case models.NotificationConnectionAccepted:
		return "Connection accepted"
	case models.NotificationPostLike, models.NotificationPostComment, models.NotificationPostShare:
		return "Activity on your post"
	case models.NotificationJobApplication:
		return "New job application"
	case models.NotificationJobApplicationUpdate:
		return "Application update"
	case models.NotificationMessage:
		return "New message"
	case models.NotificationGroupInvite, models.NotificationGroupUpdate, models.NotificationGroupAdmin,
		models.NotificationGroupRemove, models.NotificationGroupLeave:
		return "Group update"
	case models.NotificationMention:
		return "You were mentioned"
	default:
		return "New notification"
	}
}

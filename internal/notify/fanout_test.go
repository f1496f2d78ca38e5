package notify

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/realtime"
	"github.com/pro-connect/backend/pkg/apperrors"
)

type fakePusher struct {
	mu     sync.Mutex
	frames map[uint][][]byte
}

func newFakePusher() *fakePusher {
	return &fakePusher{frames: make(map[uint][][]byte)}
}

func (p *fakePusher) SendToUser(userID uint, frame []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames[userID] = append(p.frames[userID], frame)
	return 1
}

func (p *fakePusher) framesFor(userID uint) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames[userID]
}

type fakeBackbone struct {
	mu         sync.Mutex
	deliveries []realtime.Delivery
}

func (b *fakeBackbone) Publish(d realtime.Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = append(b.deliveries, d)
}

func (b *fakeBackbone) Subscribe(fn func(d realtime.Delivery)) error   { return nil }
func (b *fakeBackbone) Unsubscribe(fn func(d realtime.Delivery)) error { return nil }

func (b *fakeBackbone) all() []realtime.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]realtime.Delivery(nil), b.deliveries...)
}

type failingAppender struct{}

func (failingAppender) Append(n *models.Notification) error {
	return apperrors.Wrap(apperrors.CodeInternal, "failed to store notification", errors.New("connection refused"))
}

type devicePush struct {
	userID uint
	title  string
	body   string
	data   map[string]string
}

// fakeDevicePusher records calls on a channel because Fanout invokes it from
// its own goroutine.
type fakeDevicePusher struct {
	pushes chan devicePush
}

func newFakeDevicePusher() *fakeDevicePusher {
	return &fakeDevicePusher{pushes: make(chan devicePush, 8)}
}

func (p *fakeDevicePusher) PushToUser(userID uint, title, body string, data map[string]string) {
	p.pushes <- devicePush{userID: userID, title: title, body: body, data: data}
}

func (p *fakeDevicePusher) wait(t *testing.T) devicePush {
	t.Helper()
	select {
	case push := <-p.pushes:
		return push
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device push")
		return devicePush{}
	}
}

func testEvent() Event {
	return Event{
		Type:        models.NotificationConnectionRequest,
		RecipientID: 1,
		SenderID:    2,
		Message:     "Bob wants to connect",
		RefKind:     models.RefKindUser,
		RefID:       "2",
	}
}

func TestFanoutPublish(t *testing.T) {
	t.Run("happy path - ledger, local push, backbone and devices", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		pusher := newFakePusher()
		backbone := &fakeBackbone{}
		devices := newFakeDevicePusher()
		fanout := NewFanout(ledger, pusher, backbone, "node-a", devices, slog.Default())

		require.NoError(t, fanout.Publish(testEvent()))

		// Ledger has the record
		var stored models.Notification
		require.NoError(t, db.Where("recipient_id = ?", 1).First(&stored).Error)
		assert.Equal(t, models.NotificationConnectionRequest, stored.Type)
		assert.Equal(t, uint(2), stored.SenderID)
		assert.False(t, stored.IsRead)

		// Local sessions got one frame with the event envelope
		frames := pusher.framesFor(1)
		require.Len(t, frames, 1)
		assert.Equal(t, realtime.EventReceiveNotification, gjson.GetBytes(frames[0], "type").String())
		assert.Equal(t, models.NotificationConnectionRequest, gjson.GetBytes(frames[0], "payload.type").String())
		assert.Equal(t, "Bob wants to connect", gjson.GetBytes(frames[0], "payload.message").String())
		assert.Equal(t, int64(2), gjson.GetBytes(frames[0], "payload.senderId").Int())
		assert.Equal(t, int64(stored.ID), gjson.GetBytes(frames[0], "payload.id").Int())

		// Backbone carries the same frame stamped with this node's origin
		deliveries := backbone.all()
		require.Len(t, deliveries, 1)
		assert.Equal(t, "node-a", deliveries[0].Origin)
		assert.Equal(t, uint(1), deliveries[0].RecipientID)
		assert.Equal(t, frames[0], deliveries[0].Payload)

		// Device push carries the data clients deep-link on
		push := devices.wait(t)
		assert.Equal(t, uint(1), push.userID)
		assert.Equal(t, "New connection request", push.title)
		assert.Equal(t, "Bob wants to connect", push.body)
		assert.Equal(t, models.NotificationConnectionRequest, push.data["type"])
		assert.Equal(t, models.RefKindUser, push.data["refKind"])
		assert.Equal(t, "2", push.data["refId"])
	})

	t.Run("events about yourself are suppressed entirely", func(t *testing.T) {
		ledger, db := newTestLedger(t)
		pusher := newFakePusher()
		backbone := &fakeBackbone{}
		fanout := NewFanout(ledger, pusher, backbone, "node-a", nil, slog.Default())

		event := testEvent()
		event.RecipientID = event.SenderID
		require.NoError(t, fanout.Publish(event))

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
		assert.Zero(t, count)
		assert.Empty(t, pusher.framesFor(event.RecipientID))
		assert.Empty(t, backbone.all())
	})

	t.Run("ledger failure blocks every push", func(t *testing.T) {
		pusher := newFakePusher()
		backbone := &fakeBackbone{}
		devices := newFakeDevicePusher()
		fanout := NewFanout(failingAppender{}, pusher, backbone, "node-a", devices, slog.Default())

		err := fanout.Publish(testEvent())
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))

		assert.Empty(t, pusher.framesFor(1))
		assert.Empty(t, backbone.all())
		select {
		case push := <-devices.pushes:
			t.Fatalf("unexpected device push: %+v", push)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("nil device pusher is fine", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		fanout := NewFanout(ledger, newFakePusher(), &fakeBackbone{}, "node-a", nil, slog.Default())
		require.NoError(t, fanout.Publish(testEvent()))
	})

	t.Run("published events land unread in the ledger", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		fanout := NewFanout(ledger, newFakePusher(), &fakeBackbone{}, "node-a", nil, slog.Default())

		require.NoError(t, fanout.Publish(testEvent()))
		like := testEvent()
		like.Type = models.NotificationPostLike
		like.Message = "Bob liked your post"
		like.RefKind = models.RefKindPost
		like.RefID = "66b2a0c4e1"
		require.NoError(t, fanout.Publish(like))

		count, err := ledger.UnreadCount(1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, ledger.MarkAllRead(1))
		count, err = ledger.UnreadCount(1)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

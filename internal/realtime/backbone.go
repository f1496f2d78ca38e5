package realtime

import (
	"log/slog"

	"github.com/asaskevich/EventBus"
)

const deliveryTopic = "realtime:deliver"

// Delivery is the unit that crosses the delivery backbone: one pre-rendered
// frame for one recipient. Origin carries the publishing node's id so a node
// never re-delivers what it already pushed locally.
type Delivery struct {
	Origin      string
	RecipientID uint
	Payload     []byte
}

// Backbone fans deliveries out to every node holding live sessions. The
// in-process implementation rides an event bus; a broker-backed one can slot
// in behind the same interface.
type Backbone interface {
	Publish(d Delivery)
	Subscribe(fn func(d Delivery)) error
	Unsubscribe(fn func(d Delivery)) error
}

type eventBusBackbone struct {
	bus    EventBus.Bus
	logger *slog.Logger
}

// NewEventBusBackbone creates an in-process delivery backbone.
func NewEventBusBackbone(logger *slog.Logger) Backbone {
	return &eventBusBackbone{
		bus:    EventBus.New(),
		logger: logger.With(slog.String("component", "delivery_backbone")),
	}
}

func (b *eventBusBackbone) Publish(d Delivery) {
	b.bus.Publish(deliveryTopic, d)
}

// Subscribe registers an async handler so publishers never block on slow
// subscribers.
func (b *eventBusBackbone) Subscribe(fn func(d Delivery)) error {
	return b.bus.SubscribeAsync(deliveryTopic, fn, false)
}

func (b *eventBusBackbone) Unsubscribe(fn func(d Delivery)) error {
	return b.bus.Unsubscribe(deliveryTopic, fn)
}

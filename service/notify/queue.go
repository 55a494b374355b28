package notify

import (
	"context"

	"github.com/viant/flowgate/service/messaging"
	qmem "github.com/viant/flowgate/service/messaging/memory"
)

// QueueDispatcher publishes notification events to a message queue for an
// external consumer to deliver.
type QueueDispatcher struct {
	queue messaging.Queue[Event]
}

// NewQueueDispatcher creates a dispatcher backed by the supplied queue; when
// nil an in-memory queue with default configuration is used.
func NewQueueDispatcher(queue messaging.Queue[Event]) *QueueDispatcher {
	if queue == nil {
		queue = qmem.NewQueue[Event](qmem.DefaultConfig())
	}
	return &QueueDispatcher{queue: queue}
}

// Notify publishes the event.
func (d *QueueDispatcher) Notify(ctx context.Context, event *Event) error {
	return d.queue.Publish(ctx, event)
}

// Queue exposes the underlying queue so consumers can subscribe.
func (d *QueueDispatcher) Queue() messaging.Queue[Event] { return d.queue }

var _ Dispatcher = (*QueueDispatcher)(nil)

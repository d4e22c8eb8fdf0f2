// Package events fans task change notifications out to live observers.
//
// Delivery is at-most-once: a full inbound queue or a full subscriber buffer
// drops the event, and subscribers that connect later never see it.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// TaskUpdated is emitted after a task is updated or reassigned.
const TaskUpdated = "updateTaskEvent"

// Event is a single notification about a task.
type Event struct {
	Name       string      `json:"event"`
	Task       models.Task `json:"data"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Broker is an in-process pub/sub hub. Publish enqueues, Run fans out.
type Broker struct {
	log     *zap.SugaredLogger
	in      chan Event
	bufSize int

	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	stopped bool
}

// NewBroker creates a broker whose inbound queue and subscriber channels
// hold up to buffer events each.
func NewBroker(buffer int, log *zap.SugaredLogger) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		log:     log,
		in:      make(chan Event, buffer),
		bufSize: buffer,
		subs:    make(map[uint64]chan Event),
	}
}

// Publish enqueues e. It never blocks; when the queue is full the event is dropped.
func (b *Broker) Publish(_ context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	select {
	case b.in <- e:
	default:
		b.log.Warnw("event queue full, dropping event", "event", e.Name, "task_id", e.Task.ID)
	}
}

// Subscribe registers a new observer. The returned cancel func removes it
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.bufSize)

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of live observers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Run delivers queued events until ctx is cancelled, then closes every
// subscriber channel.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.stop()
			return
		case e := <-b.in:
			b.fanOut(e)
		}
	}
}

func (b *Broker) fanOut(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Warnw("subscriber buffer full, dropping event",
				"subscriber", id, "event", e.Name, "task_id", e.Task.ID)
		}
	}
}

func (b *Broker) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

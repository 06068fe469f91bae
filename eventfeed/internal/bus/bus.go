package bus

import (
	"sync"
	"sync/atomic"
)

type subscriberHolder struct {
	id     string
	policy DropPolicy
	stats  *SubscriberStats

	// For DropNew policy
	ch chan<- Event

	// For DropOld policy
	holder *latestEventHolder
}

type bus struct {
	mu             sync.RWMutex
	subscribers    map[string]*subscriberHolder
	totalPublished uint64
	publishSeq     uint64
	closed         bool
}

// New creates a new event bus.
func New() Bus {
	return &bus{
		subscribers: make(map[string]*subscriberHolder),
	}
}

// Subscribe registers a channel with DropNew policy: events are delivered
// with a non-blocking send and dropped when the buffer is full.
func (b *bus) Subscribe(id string, ch chan<- Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	if ch == nil {
		return ErrNilChannel
	}

	b.subscribers[id] = &subscriberHolder{
		id:     id,
		policy: DropNew,
		stats:  &SubscriberStats{},
		ch:     ch,
	}
	return nil
}

// SubscribeDropOld registers a latest-only subscriber: new events replace
// unconsumed ones, so the receiver always sees the most recent gesture.
func (b *bus) SubscribeDropOld(id string) (EventReceiver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return nil, ErrSubscriberExists
	}

	holder := &subscriberHolder{
		id:     id,
		policy: DropOld,
		stats:  &SubscriberStats{},
		holder: newLatestEventHolder(),
	}
	b.subscribers[id] = holder
	return holder.holder, nil
}

// Publish distributes an event to all subscribers (non-blocking).
func (b *bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	atomic.AddUint64(&b.totalPublished, 1)
	event.Seq = atomic.AddUint64(&b.publishSeq, 1)

	for _, holder := range b.subscribers {
		switch holder.policy {
		case DropNew:
			select {
			case holder.ch <- event:
				atomic.AddUint64(&holder.stats.Sent, 1)
			default:
				atomic.AddUint64(&holder.stats.Dropped, 1)
			}

		case DropOld:
			// Replace latest event (always succeeds while open)
			_ = holder.holder.Set(event)
			atomic.AddUint64(&holder.stats.Sent, 1)
		}
	}
}

// Unsubscribe removes a subscriber.
func (b *bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	holder, exists := b.subscribers[id]
	if !exists {
		return ErrSubscriberNotFound
	}

	if holder.policy == DropOld && holder.holder != nil {
		holder.holder.Close()
	}

	delete(b.subscribers, id)
	return nil
}

// Stats returns a snapshot of bus-wide distribution metrics.
func (b *bus) Stats() BusStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := BusStats{
		TotalPublished: atomic.LoadUint64(&b.totalPublished),
		Subscribers:    make(map[string]SubscriberStats, len(b.subscribers)),
	}
	for id, holder := range b.subscribers {
		stats.Subscribers[id] = SubscriberStats{
			Sent:    atomic.LoadUint64(&holder.stats.Sent),
			Dropped: atomic.LoadUint64(&holder.stats.Dropped),
		}
	}
	return stats
}

// Close shuts down the bus and all subscribers. Idempotent.
func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, holder := range b.subscribers {
		if holder.policy == DropOld && holder.holder != nil {
			holder.holder.Close()
		}
	}
	b.subscribers = nil
}

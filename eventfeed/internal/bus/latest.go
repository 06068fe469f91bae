package bus

import "sync"

// latestEventHolder implements EventReceiver for the DropOld policy.
type latestEventHolder struct {
	mu     sync.RWMutex
	cond   *sync.Cond
	event  *Event
	closed bool
}

func newLatestEventHolder() *latestEventHolder {
	h := &latestEventHolder{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

func (h *latestEventHolder) Set(event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrReceiverClosed
	}

	h.event = &event
	h.cond.Broadcast()
	return nil
}

// Receive blocks until an event is available.
func (h *latestEventHolder) Receive() Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.event == nil && !h.closed {
		h.cond.Wait()
	}

	if h.closed {
		return Event{}
	}

	event := *h.event
	h.event = nil
	return event
}

// TryReceive returns the latest event without blocking.
func (h *latestEventHolder) TryReceive() (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.event == nil {
		return Event{}, false
	}
	return *h.event, true
}

// Close shuts down the receiver and wakes blocked Receive calls.
func (h *latestEventHolder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.cond.Broadcast()
}

package bus

import (
	"errors"
	"time"
)

// Internal errors - mapped to public errors in the eventfeed package
var (
	ErrBusClosed          = errors.New("eventfeed: bus is closed")
	ErrSubscriberExists   = errors.New("eventfeed: subscriber already exists")
	ErrSubscriberNotFound = errors.New("eventfeed: subscriber not found")
	ErrNilChannel         = errors.New("eventfeed: nil channel provided")
	ErrReceiverClosed     = errors.New("eventfeed: receiver is closed")
)

// DropPolicy defines how the bus handles events when a subscriber cannot
// keep up.
type DropPolicy int

const (
	// DropNew drops incoming events if the subscriber's buffer is full.
	DropNew DropPolicy = iota
	// DropOld always accepts new events, replacing unconsumed ones.
	DropOld
)

// Event is one gesture observation produced by a slot's detector.
type Event struct {
	// Slot is the detector slot index that produced the event.
	Slot int
	// TrackingID identifies the subject the detector was bound to.
	TrackingID uint64
	// Kind names the detected gesture (e.g. "seated", "hand_raised").
	Kind string
	// Confidence is the detector's confidence in [0, 1].
	Confidence float64
	// Seq is a monotonic sequence assigned by the bus on Publish.
	Seq uint64
	// Timestamp is when the detector emitted the event.
	Timestamp time.Time
}

// EventReceiver provides blocking/non-blocking event access for the DropOld
// policy.
type EventReceiver interface {
	// Receive blocks until an event is available; returns the zero Event
	// after Close.
	Receive() Event
	// TryReceive returns the latest event without blocking.
	TryReceive() (Event, bool)
	// Close shuts down the receiver.
	Close()
}

// SubscriberStats tracks event distribution metrics.
type SubscriberStats struct {
	Sent    uint64
	Dropped uint64
}

// BusStats is a snapshot of bus-wide distribution metrics.
type BusStats struct {
	TotalPublished uint64
	Subscribers    map[string]SubscriberStats
}

// Bus distributes gesture events to subscribers with configurable drop
// policies.
type Bus interface {
	Subscribe(id string, ch chan<- Event) error
	SubscribeDropOld(id string) (EventReceiver, error)
	Publish(event Event)
	Unsubscribe(id string) error
	Stats() BusStats
	Close()
}

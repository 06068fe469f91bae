// Package eventfeed provides non-blocking gesture-event distribution.
//
// Core Philosophy: "Drop events, never queue. The newest gesture state is
// the only one the UI cares about."
//
// Detectors publish per-subject gesture observations; subscribers choose a
// drop policy:
//   - DropNew: buffered channel, incoming events drop when the buffer fills
//   - DropOld: latest-only receiver, new events replace unconsumed ones
//
// Usage:
//
//	feed := eventfeed.New()
//	defer feed.Close()
//
//	ch := make(chan eventfeed.Event, 16)
//	feed.Subscribe("metrics", ch)
//
//	receiver, _ := feed.SubscribeDropOld("overlay")
//	defer receiver.Close()
//
//	feed.Publish(eventfeed.Event{Slot: 3, TrackingID: 42, Kind: "seated", Confidence: 0.92})
package eventfeed

import "github.com/e7canasta/kinect-sense/eventfeed/internal/bus"

// Public API - Re-export internal types as stable contract

// DropPolicy defines how the bus handles events when a subscriber cannot keep up
type DropPolicy = bus.DropPolicy

const (
	// DropNew drops incoming events if the subscriber's buffer is full (backpressure)
	DropNew = bus.DropNew
	// DropOld always accepts new events, replacing old ones (latest-only)
	DropOld = bus.DropOld
)

// Event is one gesture observation produced by a slot's detector
type Event = bus.Event

// EventReceiver provides blocking/non-blocking event access for DropOld policy
type EventReceiver = bus.EventReceiver

// SubscriberStats tracks event distribution metrics
type SubscriberStats = bus.SubscriberStats

// BusStats is a snapshot of bus-wide distribution metrics
type BusStats = bus.BusStats

// Bus distributes gesture events to multiple subscribers with configurable drop policies
type Bus = bus.Bus

// Public API errors - Re-export internal errors as stable contract
var (
	ErrBusClosed          = bus.ErrBusClosed
	ErrSubscriberExists   = bus.ErrSubscriberExists
	ErrSubscriberNotFound = bus.ErrSubscriberNotFound
	ErrNilChannel         = bus.ErrNilChannel
	ErrReceiverClosed     = bus.ErrReceiverClosed
)

// New creates a new event bus instance
func New() Bus {
	return bus.New()
}

// CalculateDropRate returns the bus-wide drop rate as a fraction (0.0 to 1.0).
// Returns 0.0 if no events have been sent or dropped.
func CalculateDropRate(stats BusStats) float64 {
	var sent, dropped uint64
	for _, sub := range stats.Subscribers {
		sent += sub.Sent
		dropped += sub.Dropped
	}
	total := sent + dropped
	if total == 0 {
		return 0.0
	}
	return float64(dropped) / float64(total)
}

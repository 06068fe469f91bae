package eventfeed

import (
	"testing"
	"time"
)

// TestBasicPublishSubscribe verifies basic channel delivery.
func TestBasicPublishSubscribe(t *testing.T) {
	feed := New()
	defer feed.Close()

	ch := make(chan Event, 10)
	if err := feed.Subscribe("overlay", ch); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	feed.Publish(Event{Slot: 2, TrackingID: 42, Kind: "seated", Confidence: 0.9})

	select {
	case received := <-ch:
		if received.Slot != 2 || received.TrackingID != 42 || received.Kind != "seated" {
			t.Errorf("Unexpected event: %+v", received)
		}
		if received.Seq == 0 {
			t.Error("Expected bus to assign a nonzero sequence")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

// TestNonBlockingPublish verifies Publish never blocks on a full subscriber.
func TestNonBlockingPublish(t *testing.T) {
	feed := New()
	defer feed.Close()

	ch := make(chan Event, 1)
	feed.Subscribe("slow", ch)

	done := make(chan bool)
	go func() {
		feed.Publish(Event{Slot: 0, Kind: "hand_raised"})
		feed.Publish(Event{Slot: 1, Kind: "hand_raised"}) // buffer full, drops
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Publish blocked (should be non-blocking)")
	}

	stats := feed.Stats()
	sub := stats.Subscribers["slow"]
	if sub.Sent != 1 || sub.Dropped != 1 {
		t.Errorf("Expected 1 sent / 1 dropped, got %d / %d", sub.Sent, sub.Dropped)
	}
}

// TestDropOldLatestWins verifies a DropOld receiver sees only the newest event.
func TestDropOldLatestWins(t *testing.T) {
	feed := New()
	defer feed.Close()

	receiver, err := feed.SubscribeDropOld("latest")
	if err != nil {
		t.Fatalf("SubscribeDropOld failed: %v", err)
	}
	defer receiver.Close()

	for i := 0; i < 5; i++ {
		feed.Publish(Event{Slot: i, Kind: "wave"})
	}

	event, ok := receiver.TryReceive()
	if !ok {
		t.Fatal("Expected an event to be held")
	}
	if event.Slot != 4 {
		t.Errorf("Expected newest event (slot 4), got slot %d", event.Slot)
	}
}

// TestSubscriberValidation verifies error paths for duplicate and nil
// subscriptions and unknown unsubscription.
func TestSubscriberValidation(t *testing.T) {
	feed := New()
	defer feed.Close()

	ch := make(chan Event, 1)
	if err := feed.Subscribe("a", ch); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := feed.Subscribe("a", ch); err != ErrSubscriberExists {
		t.Errorf("Expected ErrSubscriberExists, got %v", err)
	}
	if err := feed.Subscribe("b", nil); err != ErrNilChannel {
		t.Errorf("Expected ErrNilChannel, got %v", err)
	}
	if err := feed.Unsubscribe("missing"); err != ErrSubscriberNotFound {
		t.Errorf("Expected ErrSubscriberNotFound, got %v", err)
	}
}

// TestCloseIdempotent verifies Close is safe to call twice and that a
// closed bus rejects new subscribers and drops publishes.
func TestCloseIdempotent(t *testing.T) {
	feed := New()

	receiver, _ := feed.SubscribeDropOld("r")

	feed.Close()
	feed.Close()

	if err := feed.Subscribe("late", make(chan Event, 1)); err != ErrBusClosed {
		t.Errorf("Expected ErrBusClosed, got %v", err)
	}

	// Publish after close is a silent no-op.
	feed.Publish(Event{Kind: "wave"})

	// Blocked receivers were woken with the zero event.
	if event := receiver.Receive(); event.Kind != "" {
		t.Errorf("Expected zero event after close, got %+v", event)
	}
}

// TestCalculateDropRate verifies the helper aggregates per-subscriber stats.
func TestCalculateDropRate(t *testing.T) {
	stats := BusStats{
		Subscribers: map[string]SubscriberStats{
			"a": {Sent: 3, Dropped: 1},
			"b": {Sent: 4, Dropped: 0},
		},
	}
	if rate := CalculateDropRate(stats); rate != 0.125 {
		t.Errorf("Expected drop rate 0.125, got %f", rate)
	}
	if rate := CalculateDropRate(BusStats{}); rate != 0.0 {
		t.Errorf("Expected 0.0 for empty stats, got %f", rate)
	}
}

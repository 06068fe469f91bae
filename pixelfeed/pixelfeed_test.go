package pixelfeed_test

import (
	"context"
	"testing"
	"time"

	"github.com/e7canasta/kinect-sense/pixelfeed"
)

// TestPublishNonBlocking verifies Publish returns immediately even with no
// view consuming: the frame callback must never be stalled by render-side
// consumers.
func TestPublishNonBlocking(t *testing.T) {
	feed := pixelfeed.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	start := time.Now()
	for i := 0; i < 100; i++ {
		feed.Publish(&pixelfeed.Frame{
			Pixels:    make([]byte, 16),
			Width:     2,
			Height:    2,
			Timestamp: time.Now(),
		})
	}
	elapsed := time.Since(start)

	// Generous bound: even at 1ms per Publish (1000x the design target)
	// 100 publishes stay under 100ms.
	if elapsed > 100*time.Millisecond {
		t.Errorf("Publish blocked: 100 frames took %v", elapsed)
	}
}

// TestViewReceivesLatestFrame verifies latest-wins mailbox semantics: a
// view that wakes up after a burst sees the newest frame, not a backlog.
func TestViewReceivesLatestFrame(t *testing.T) {
	feed := pixelfeed.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	readFunc := feed.Subscribe("preview")
	defer feed.Unsubscribe("preview")

	// Publish a burst, then give the delivery loop time to settle so the
	// view slot holds only the newest delivered frame.
	for i := 1; i <= 5; i++ {
		feed.Publish(&pixelfeed.Frame{SourceSeq: uint64(i), Pixels: []byte{byte(i)}})
		time.Sleep(5 * time.Millisecond)
	}

	frame := readFunc()
	if frame == nil {
		t.Fatal("readFunc returned nil before shutdown")
	}
	if frame.SourceSeq != 5 {
		t.Errorf("Expected newest frame (source seq 5), got %d", frame.SourceSeq)
	}

	stats := feed.Stats()
	view := stats.Views["preview"]
	if view.TotalDrops != 4 {
		t.Errorf("Expected 4 overwritten frames for sleeping view, got %d", view.TotalDrops)
	}
}

// TestUnsubscribeWakesView verifies a blocked view exits with nil on
// Unsubscribe, and that Unsubscribe is idempotent.
func TestUnsubscribeWakesView(t *testing.T) {
	feed := pixelfeed.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	readFunc := feed.Subscribe("renderer")

	done := make(chan *pixelfeed.Frame, 1)
	go func() { done <- readFunc() }()

	// Let the view block, then remove it.
	time.Sleep(10 * time.Millisecond)
	feed.Unsubscribe("renderer")
	feed.Unsubscribe("renderer") // idempotent

	select {
	case frame := <-done:
		if frame != nil {
			t.Errorf("Expected nil frame on unsubscribe, got seq %d", frame.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("view still blocked after Unsubscribe")
	}
}

// TestStopShutsDownViews verifies Stop wakes blocked views and is
// idempotent, and that Subscribe after Stop degrades to a nil-read.
func TestStopShutsDownViews(t *testing.T) {
	feed := pixelfeed.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	readFunc := feed.Subscribe("caster")
	done := make(chan *pixelfeed.Frame, 1)
	go func() { done <- readFunc() }()
	time.Sleep(10 * time.Millisecond)

	if err := feed.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := feed.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}

	select {
	case frame := <-done:
		if frame != nil {
			t.Error("Expected nil frame on shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("view still blocked after Stop")
	}

	late := feed.Subscribe("late")
	if frame := late(); frame != nil {
		t.Error("Subscribe after Stop should yield nil reads")
	}
}

// TestStartTwice verifies the idempotency guard on Start.
func TestStartTwice(t *testing.T) {
	feed := pixelfeed.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	if err := feed.Start(ctx); err == nil {
		t.Error("Expected error on second Start")
	}
}

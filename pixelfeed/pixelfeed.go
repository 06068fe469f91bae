package pixelfeed

import (
	"context"

	"github.com/e7canasta/kinect-sense/pixelfeed/internal"
)

// Frame is re-exported from the internal package to avoid import cycles.
// See internal/frame.go for the immutability contract.
type Frame = internal.Frame

// FeedStats is a snapshot of feed operational state.
type FeedStats = internal.FeedStats

// ViewStats tracks per-view operational state.
type ViewStats = internal.ViewStats

// Feed is the public interface for latest-wins pixel frame distribution.
//
// Lifecycle: New() -> Start() -> Publish()/Subscribe() -> Stop().
// All methods are safe for concurrent use.
type Feed interface {
	// Start begins the delivery loop. Must be called before Publish or
	// Subscribe. Returns an error if already started.
	Start(ctx context.Context) error

	// Stop gracefully shuts down delivery. After Stop, Publish is a no-op
	// and every view's read function returns nil. Idempotent.
	Stop() error

	// Publish hands a finished frame to the delivery loop (non-blocking,
	// latest-wins). The frame's Pixels must not be modified afterwards.
	Publish(frame *Frame)

	// Subscribe registers a view and returns a blocking read function that
	// yields the newest frame, or nil on shutdown.
	//
	// Example:
	//
	//	readFunc := feed.Subscribe("udp-caster")
	//	defer feed.Unsubscribe("udp-caster")
	//	for {
	//		frame := readFunc() // blocks
	//		if frame == nil {
	//			break
	//		}
	//		cast(frame)
	//	}
	Subscribe(viewID string) func() *Frame

	// Unsubscribe removes a view and wakes its read function to return nil.
	// Idempotent.
	Unsubscribe(viewID string)

	// Stats returns a non-blocking snapshot of drop counters and per-view
	// consumption state.
	Stats() FeedStats
}

// New creates a pixel feed with default configuration.
func New() Feed {
	return internal.NewFeed()
}

package sensorcapture

import (
	"context"
	"time"
)

// FrameProvider is the contract for sensor sample-stream acquisition.
//
// Implementations must guarantee:
//   - Start() returns immediately (non-blocking)
//   - Start() returns a channel that stays open until Stop()
//   - frames are delivered with a non-blocking send; when the channel
//     buffer is full the frame is dropped, never queued
//   - Stop() is idempotent (safe to call multiple times)
//   - Stats() is thread-safe
//   - SetTargetFPS() takes effect without a restart (hot-reload)
type FrameProvider interface {
	// Start initializes the source and returns a read-only frame channel.
	// Frames start arriving asynchronously once the source is live.
	Start(ctx context.Context) (<-chan Frame, error)

	// Stop gracefully shuts down the source and closes the frame channel.
	// Safe to call multiple times; stopping an already-stopped provider is
	// a no-op, not an error.
	Stop() error

	// Stats returns current stream statistics (thread-safe snapshot).
	Stats() StreamStats

	// SetTargetFPS updates the target frame rate without restarting.
	// Returns an error if fps is outside (0.1, 30.0] or the provider is
	// not running.
	SetTargetFPS(fps float64) error

	// Warmup consumes frames for the given duration and measures FPS
	// stability. Call after Start, before production processing.
	Warmup(ctx context.Context, duration time.Duration) (*WarmupStats, error)
}

// BodyProvider is the contract for body-tracking frame acquisition.
// Delivery rules match FrameProvider: non-blocking sends, drop-on-full,
// idempotent Stop.
type BodyProvider interface {
	// Start returns a read-only channel of body frames.
	Start(ctx context.Context) (<-chan BodyFrame, error)

	// Stop gracefully shuts down the source. Idempotent.
	Stop() error

	// Capacity returns the sensor's maximum simultaneous subject count.
	// Detector pools must size themselves from this value.
	Capacity() int
}

package internal

import "time"

// FeedStats is a snapshot of feed operational state.
type FeedStats struct {
	// InboxDrops counts frames overwritten in the inbox before the delivery
	// loop consumed them. Should stay around 0: delivery is orders of
	// magnitude faster than a 30fps sensor.
	InboxDrops uint64

	// Views maps viewID to per-view statistics.
	Views map[string]ViewStats
}

// ViewStats tracks per-view operational state.
type ViewStats struct {
	// ViewID is the unique identifier for this view.
	ViewID string

	// LastConsumedAt is the timestamp of the last successful consume.
	LastConsumedAt time.Time

	// LastConsumedSeq is the feed sequence of the last consumed frame.
	LastConsumedSeq uint64

	// ConsecutiveDrops is the current streak of overwritten frames.
	// Resets to 0 on a successful consume.
	ConsecutiveDrops uint64

	// TotalDrops is the lifetime count of overwritten frames for this view.
	TotalDrops uint64

	// IsIdle indicates the view has not consumed a frame recently
	// (health checks, restart policies).
	IsIdle bool
}

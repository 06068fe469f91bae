package internal

import (
	"sync/atomic"
	"time"
)

// idleThreshold marks a view as idle when it has not consumed a frame for
// this long. Render-side views consume at sensor rate (30fps) or slower
// (preview polls); 30 seconds of silence means the view is stuck or gone.
const idleThreshold = 30 * time.Second

// Stats returns a snapshot of feed operational state.
//
// Non-blocking: InboxDrops is an atomic read and per-view fields are read
// under each slot's own lock. The snapshot may be slightly stale, which is
// acceptable for monitoring.
func (f *Feed) Stats() FeedStats {
	views := make(map[string]ViewStats)

	f.slots.Range(func(key, value interface{}) bool {
		viewID := key.(string)
		slot := value.(*ViewSlot)

		slot.mu.Lock()
		stat := ViewStats{
			ViewID:           viewID,
			LastConsumedAt:   slot.lastConsumedAt,
			LastConsumedSeq:  slot.lastConsumedSeq,
			ConsecutiveDrops: slot.consecutiveDrops,
			TotalDrops:       slot.totalDrops,
			IsIdle:           time.Since(slot.lastConsumedAt) > idleThreshold,
		}
		slot.mu.Unlock()

		views[viewID] = stat
		return true
	})

	return FeedStats{
		InboxDrops: atomic.LoadUint64(&f.inboxDrops),
		Views:      views,
	}
}

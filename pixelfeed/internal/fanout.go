package internal

import "sync/atomic"

// deliverBatchSize is the threshold for switching from sequential to
// parallel delivery. Sequential delivery costs ~1us per slot; goroutine
// spawn costs ~2us, so batching only pays off past roughly a dozen views.
// A sensor page registers two or three views, so the sequential path is the
// expected one.
const deliverBatchSize = 8

// deliverToViews fans one frame out to every registered view slot.
//
// Ordering: delivery of frame N completes microseconds after it starts,
// while frame N+1 is at least one sensor period (~33ms) away, so a later
// frame cannot overtake an earlier one even on the fire-and-forget batch
// path.
func (f *Feed) deliverToViews(frame *Frame) {
	frame.Seq = atomic.AddUint64(&f.deliverSeq, 1)

	// Snapshot slots; sync.Map.Range is not suited to nested iteration.
	var slots []*ViewSlot
	f.slots.Range(func(key, value interface{}) bool {
		slots = append(slots, value.(*ViewSlot))
		return true
	})

	if len(slots) == 0 {
		return
	}

	if len(slots) <= deliverBatchSize {
		for _, slot := range slots {
			f.publishToSlot(slot, frame)
		}
		return
	}

	for i := 0; i < len(slots); i += deliverBatchSize {
		end := i + deliverBatchSize
		if end > len(slots) {
			end = len(slots)
		}
		go func(batch []*ViewSlot) {
			for _, slot := range batch {
				f.publishToSlot(slot, frame)
			}
		}(slots[i:end])
	}
}

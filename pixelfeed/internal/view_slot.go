package internal

import (
	"sync"
	"time"
)

// ViewSlot is a per-view mailbox: a single-slot buffer with overwrite
// semantics and blocking consume.
//
// Thread-safety: all fields protected by mu. publishToSlot is called from
// the delivery loop (or its batch goroutines); the read function returned
// by Subscribe is called from the view's own goroutine (single consumer).
type ViewSlot struct {
	mu    sync.Mutex
	cond  *sync.Cond
	frame *Frame // nil = consumed, non-nil = unconsumed

	lastConsumedAt   time.Time
	lastConsumedSeq  uint64
	consecutiveDrops uint64
	totalDrops       uint64

	closed bool // true after Unsubscribe; read function returns nil
}

// publishToSlot delivers a frame to one view mailbox (non-blocking).
// An unconsumed previous frame is overwritten and counted as a drop.
func (f *Feed) publishToSlot(slot *ViewSlot, frame *Frame) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.closed {
		return
	}

	if slot.frame != nil {
		slot.consecutiveDrops++
		slot.totalDrops++
	}

	slot.frame = frame
	slot.cond.Signal()
}

// Subscribe registers a view and returns a blocking read function.
//
// The read function blocks until a frame is available and returns nil on
// shutdown (Unsubscribe or Stop). It must be called from a single view
// goroutine only; the view should defer Unsubscribe.
func (f *Feed) Subscribe(viewID string) func() *Frame {
	if f.stopping.Load() {
		return func() *Frame { return nil }
	}

	slot := &ViewSlot{}
	slot.cond = sync.NewCond(&slot.mu)
	slot.lastConsumedAt = time.Now()

	f.slots.Store(viewID, slot)

	return func() *Frame {
		slot.mu.Lock()
		defer slot.mu.Unlock()

		for slot.frame == nil && !slot.closed {
			slot.cond.Wait()
		}

		if slot.closed {
			return nil
		}

		frame := slot.frame
		slot.frame = nil
		slot.lastConsumedAt = time.Now()
		slot.lastConsumedSeq = frame.Seq
		slot.consecutiveDrops = 0

		return frame
	}
}

// Unsubscribe removes a view and wakes its read function to return nil.
// Idempotent: unknown viewIDs are a no-op.
func (f *Feed) Unsubscribe(viewID string) {
	val, ok := f.slots.Load(viewID)
	if !ok {
		return
	}

	slot := val.(*ViewSlot)

	slot.mu.Lock()
	slot.closed = true
	slot.cond.Signal()
	slot.mu.Unlock()

	f.slots.Delete(viewID)
}

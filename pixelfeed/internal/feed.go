// Package internal implements the pixel feed's symmetric mailbox delivery.
//
// This package is INTERNAL - clients use the public API in the parent
// package, which re-exports the stable types.
package internal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Feed is the concrete mailbox-based distributor behind pixelfeed.Feed.
//
// Goroutine topology:
//   - 1 fixed: deliveryLoop (spawned by Start, stopped by Stop)
//   - 0..N/8 transient: batch goroutines when many views are registered
//   - N external: view goroutines, owned by the views themselves
//
// Thread-safety: all exported methods are safe for concurrent use.
type Feed struct {
	// Inbox mailbox: publisher -> delivery loop.
	inboxMu    sync.Mutex
	inboxCond  *sync.Cond
	inboxFrame *Frame // nil = consumed, non-nil = unconsumed
	inboxDrops uint64 // atomic

	// View slots: delivery loop -> views.
	slots sync.Map // viewID (string) -> *ViewSlot

	deliverSeq uint64 // atomic, assigned during delivery

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopping atomic.Bool

	startedMu sync.Mutex
	started   bool
}

// NewFeed creates an unstarted feed.
func NewFeed() *Feed {
	f := &Feed{}
	f.inboxCond = sync.NewCond(&f.inboxMu)
	return f
}

// Start spawns the delivery loop. Only the first call succeeds.
func (f *Feed) Start(ctx context.Context) error {
	f.startedMu.Lock()
	defer f.startedMu.Unlock()

	if f.started {
		return fmt.Errorf("pixelfeed: feed already started")
	}

	f.ctx, f.cancel = context.WithCancel(ctx)
	f.started = true

	f.wg.Add(1)
	go f.deliveryLoop()

	return nil
}

// Stop shuts down the delivery loop and wakes every blocked view.
// Idempotent: subsequent calls are no-ops.
func (f *Feed) Stop() error {
	f.startedMu.Lock()
	if !f.started {
		f.startedMu.Unlock()
		return nil
	}
	f.startedMu.Unlock()

	if f.stopping.Swap(true) {
		return nil
	}

	f.cancel()
	f.inboxCond.Broadcast()
	f.wg.Wait()

	// Wake blocked views so their read functions return nil.
	f.slots.Range(func(key, value interface{}) bool {
		f.Unsubscribe(key.(string))
		return true
	})

	return nil
}

// deliveryLoop consumes the inbox and fans frames out to view slots.
//
// The loop blocks on the inbox condition variable, consumes the latest
// frame, and delivers. It exits when the feed context is cancelled.
func (f *Feed) deliveryLoop() {
	defer f.wg.Done()

	for {
		f.inboxMu.Lock()

		for f.inboxFrame == nil {
			if f.ctx.Err() != nil {
				f.inboxMu.Unlock()
				return
			}
			f.inboxCond.Wait()
			if f.ctx.Err() != nil {
				f.inboxMu.Unlock()
				return
			}
		}

		frame := f.inboxFrame
		f.inboxFrame = nil
		f.inboxMu.Unlock()

		f.deliverToViews(frame)
	}
}

// Publish hands a finished frame to the delivery loop (non-blocking).
//
// A previous unconsumed frame is overwritten (latest-wins) and counted in
// InboxDrops. The frame's Pixels must not be modified after this call.
func (f *Feed) Publish(frame *Frame) {
	f.inboxMu.Lock()

	if f.inboxFrame != nil {
		atomic.AddUint64(&f.inboxDrops, 1)
	}
	f.inboxFrame = frame
	f.inboxCond.Signal()

	f.inboxMu.Unlock()
}

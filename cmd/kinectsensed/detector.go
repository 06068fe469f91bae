package main

import (
	"time"

	"github.com/e7canasta/kinect-sense/eventfeed"
)

// presenceDetector is the built-in gesture reasoner: it recognizes exactly
// one gesture, being there. Real reasoners plug in through the same
// lifecycle contract; this one exists so the daemon exercises the full
// bind/pause/event path out of the box.
type presenceDetector struct {
	slot       int
	bus        eventfeed.Bus
	trackingID uint64
	paused     bool
}

func (d *presenceDetector) SetTrackingID(id uint64) {
	d.trackingID = id
	if id != 0 {
		d.bus.Publish(eventfeed.Event{
			Slot:       d.slot,
			TrackingID: id,
			Kind:       "present",
			Confidence: 1.0,
			Timestamp:  time.Now(),
		})
	}
}

func (d *presenceDetector) SetPaused(paused bool) {
	// Pausing an already-bound detector means the subject left.
	if paused && !d.paused && d.trackingID != 0 {
		d.bus.Publish(eventfeed.Event{
			Slot:       d.slot,
			TrackingID: d.trackingID,
			Kind:       "absent",
			Confidence: 1.0,
			Timestamp:  time.Now(),
		})
	}
	d.paused = paused
}

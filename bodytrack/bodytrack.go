package bodytrack

import (
	"errors"
	"fmt"
)

// Package errors - recoverable and local, never fatal to the running stream
var (
	// ErrCapacityExceeded reports more tracked subjects than detector slots.
	// The first N subjects are still processed; the excess is ignored and
	// the error is returned for the caller to log.
	ErrCapacityExceeded = errors.New("bodytrack: tracked subjects exceed detector capacity")

	// ErrNoDetectors reports a Manager constructed without detector slots.
	ErrNoDetectors = errors.New("bodytrack: at least one detector required")
)

// UntrackedID is the tracking identifier of an unoccupied slot.
const UntrackedID uint64 = 0

// Subject is one tracked body reported by the sensor for a single frame.
// A zero TrackingID means the slot is unoccupied this frame.
type Subject struct {
	TrackingID uint64
}

// Tracked reports whether the subject occupies its slot.
func (s Subject) Tracked() bool { return s.TrackingID != UntrackedID }

// Detector is the external per-subject gesture reasoner bound to a slot.
//
// Contract:
//   - SetTrackingID and SetPaused are invoked only on an actual identity
//     change, never redundantly per frame. A detector may treat either call
//     as "discard in-progress gesture state".
//   - A paused detector's reasoner must skip its work until resumed.
type Detector interface {
	SetTrackingID(id uint64)
	SetPaused(paused bool)
}

// Binding associates a slot index with its long-lived detector.
// The TrackingID field is mutated in place on the frame where the occupying
// subject changes; the detector instance itself lives until shutdown.
type Binding struct {
	Slot       int
	TrackingID uint64
	Paused     bool

	detector Detector
	rebinds  uint64
}

// Detector returns the long-lived detector bound to this slot.
func (b *Binding) Detector() Detector { return b.detector }

// SlotStats is an operational snapshot of one detector slot.
type SlotStats struct {
	Slot       int
	TrackingID uint64
	Paused     bool

	// Rebinds counts identity changes since startup (not frames).
	Rebinds uint64
}

// Stats is an operational snapshot of the whole manager.
type Stats struct {
	// Capacity is the sensor's maximum simultaneous subject count.
	Capacity int

	// ActiveSlots counts slots currently bound to a nonzero tracking id.
	ActiveSlots int

	// Frames counts Reconcile calls since startup.
	Frames uint64

	Slots []SlotStats
}

// Manager reconciles per-frame tracked subjects against detector bindings.
//
// Not safe for concurrent use: Reconcile runs inside the body-frame
// callback, which is single-flight by construction of the sensor delivery
// mechanism. The manager shares no state with the pixel streams.
type Manager struct {
	bindings []Binding
	frames   uint64
}

// NewManager binds one slot per detector. The slice length is the sensor's
// maximum simultaneous subject count and must come from the sensor
// collaborator, never a hardcoded constant. All slots start unoccupied and
// paused.
func NewManager(detectors []Detector) (*Manager, error) {
	if len(detectors) == 0 {
		return nil, ErrNoDetectors
	}

	bindings := make([]Binding, len(detectors))
	for i, d := range detectors {
		if d == nil {
			return nil, fmt.Errorf("bodytrack: nil detector at slot %d", i)
		}
		bindings[i] = Binding{Slot: i, TrackingID: UntrackedID, Paused: true, detector: d}
		d.SetPaused(true)
	}

	return &Manager{bindings: bindings}, nil
}

// Capacity returns the number of detector slots.
func (m *Manager) Capacity() int { return len(m.bindings) }

// Reconcile diffs the frame's subjects against the bindings, slot by slot.
//
// For each slot i the new identity is subjects[i].TrackingID, or 0 when the
// frame reports fewer subjects than slots. Only on an identity change does
// the manager touch the binding: it rebinds the tracking id in place, sets
// paused exactly when the slot became unoccupied, and pushes both to the
// detector. An unchanged slot is left alone so the detector keeps its
// in-progress gesture state.
//
// If the frame reports more subjects than slots, the first Capacity()
// subjects are processed and ErrCapacityExceeded is returned.
func (m *Manager) Reconcile(subjects []Subject) error {
	m.frames++

	for i := range m.bindings {
		newID := UntrackedID
		if i < len(subjects) {
			newID = subjects[i].TrackingID
		}

		b := &m.bindings[i]
		if newID == b.TrackingID {
			continue
		}

		b.TrackingID = newID
		b.Paused = newID == UntrackedID
		b.rebinds++

		b.detector.SetTrackingID(newID)
		b.detector.SetPaused(b.Paused)
	}

	if len(subjects) > len(m.bindings) {
		return fmt.Errorf("%w: %d subjects, %d slots",
			ErrCapacityExceeded, len(subjects), len(m.bindings))
	}
	return nil
}

// Binding returns the binding at the given slot, or nil if out of range.
func (m *Manager) Binding(slot int) *Binding {
	if slot < 0 || slot >= len(m.bindings) {
		return nil
	}
	return &m.bindings[slot]
}

// Stats returns an operational snapshot of all slots.
func (m *Manager) Stats() Stats {
	stats := Stats{
		Capacity: len(m.bindings),
		Frames:   m.frames,
		Slots:    make([]SlotStats, len(m.bindings)),
	}
	for i := range m.bindings {
		b := &m.bindings[i]
		if !b.Paused {
			stats.ActiveSlots++
		}
		stats.Slots[i] = SlotStats{
			Slot:       b.Slot,
			TrackingID: b.TrackingID,
			Paused:     b.Paused,
			Rebinds:    b.rebinds,
		}
	}
	return stats
}

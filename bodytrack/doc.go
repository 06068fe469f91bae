// Package bodytrack manages gesture-detector lifecycle across a bounded set
// of concurrently tracked subjects.
//
// The sensor reports up to N simultaneously tracked bodies (N comes from the
// sensor collaborator, typically 6). Each of the N slots is bound once, at
// startup, to a long-lived gesture detector; detectors are never recreated
// per frame. On every body frame the Manager reconciles the reported
// tracking identifiers against the existing bindings:
//
//   - Slot identity unchanged: the binding is left untouched, so a detector
//     keeps its in-progress gesture state for a continuously tracked subject.
//   - Slot identity changed: the binding's tracking id is rebound in place
//     and the detector is paused exactly when the slot is unoccupied (id 0).
//
// The paused flag is the admission-control switch of the per-subject
// analyzer pool: a paused detector's reasoner skips its work, saving CPU on
// empty slots.
package bodytrack

package bodytrack

import (
	"errors"
	"testing"
)

// fakeDetector counts lifecycle calls so tests can verify the manager never
// resets detector state without an actual identity change.
type fakeDetector struct {
	trackingID uint64
	paused     bool
	rebinds    int
	pauseCalls int
}

func (d *fakeDetector) SetTrackingID(id uint64) {
	d.trackingID = id
	d.rebinds++
}

func (d *fakeDetector) SetPaused(paused bool) {
	d.paused = paused
	d.pauseCalls++
}

func newManager(t *testing.T, n int) (*Manager, []*fakeDetector) {
	t.Helper()

	fakes := make([]*fakeDetector, n)
	detectors := make([]Detector, n)
	for i := range fakes {
		fakes[i] = &fakeDetector{}
		detectors[i] = fakes[i]
	}

	m, err := NewManager(detectors)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// Construction pauses every detector once; reset counters so tests
	// observe Reconcile behavior only.
	for _, f := range fakes {
		f.pauseCalls = 0
	}
	return m, fakes
}

// TestReconcileBindsNewSubjects verifies entering subjects unpause their
// slots and are pushed to the detectors.
func TestReconcileBindsNewSubjects(t *testing.T) {
	m, fakes := newManager(t, 6)

	subjects := []Subject{{101}, {102}, {0}, {104}, {0}, {0}}
	if err := m.Reconcile(subjects); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	for i, want := range []uint64{101, 102, 0, 104, 0, 0} {
		b := m.Binding(i)
		if b.TrackingID != want {
			t.Errorf("slot %d: expected tracking id %d, got %d", i, want, b.TrackingID)
		}
		wantPaused := want == UntrackedID
		if b.Paused != wantPaused {
			t.Errorf("slot %d: expected paused=%v, got %v", i, wantPaused, b.Paused)
		}
		if fakes[i].trackingID != want {
			t.Errorf("slot %d: detector saw id %d, want %d", i, fakes[i].trackingID, want)
		}
	}

	stats := m.Stats()
	if stats.ActiveSlots != 3 {
		t.Errorf("Expected 3 active slots, got %d", stats.ActiveSlots)
	}
}

// TestReconcileNoSpuriousResets verifies an unchanged subject sequence
// leaves every binding and detector untouched (sentinel counters only move
// on actual identity changes).
func TestReconcileNoSpuriousResets(t *testing.T) {
	m, fakes := newManager(t, 6)

	subjects := []Subject{{11}, {12}, {13}, {14}, {15}, {16}}
	if err := m.Reconcile(subjects); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	rebindsAfterFirst := make([]int, len(fakes))
	for i, f := range fakes {
		rebindsAfterFirst[i] = f.rebinds
	}

	if err := m.Reconcile(subjects); err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}

	for i, f := range fakes {
		if f.rebinds != rebindsAfterFirst[i] {
			t.Errorf("slot %d: detector rebound on unchanged frame (%d -> %d)",
				i, rebindsAfterFirst[i], f.rebinds)
		}
	}
}

// TestReconcileSingleSlotDrop is the end-to-end scenario: 6 subjects tracked
// for 10 consecutive frames, then the subject at slot 3 drops to id 0.
// Exactly one binding transitions paused false -> true on that frame.
func TestReconcileSingleSlotDrop(t *testing.T) {
	m, fakes := newManager(t, 6)

	subjects := []Subject{{21}, {22}, {23}, {24}, {25}, {26}}
	for frame := 0; frame < 10; frame++ {
		if err := m.Reconcile(subjects); err != nil {
			t.Fatalf("frame %d: Reconcile failed: %v", frame, err)
		}
	}

	pauseCallsBefore := make([]int, len(fakes))
	for i, f := range fakes {
		pauseCallsBefore[i] = f.pauseCalls
	}

	dropped := []Subject{{21}, {22}, {23}, {0}, {25}, {26}}
	if err := m.Reconcile(dropped); err != nil {
		t.Fatalf("drop frame: Reconcile failed: %v", err)
	}

	for i, f := range fakes {
		calls := f.pauseCalls - pauseCallsBefore[i]
		if i == 3 {
			if calls != 1 || !f.paused {
				t.Errorf("slot 3: expected exactly one pause transition, got %d calls, paused=%v",
					calls, f.paused)
			}
		} else if calls != 0 {
			t.Errorf("slot %d: unexpected pause call on drop frame", i)
		}
	}

	if b := m.Binding(3); !b.Paused || b.TrackingID != UntrackedID {
		t.Errorf("slot 3: expected paused unoccupied binding, got id=%d paused=%v",
			b.TrackingID, b.Paused)
	}
}

// TestReconcileCapacityExceeded verifies the first N subjects are processed
// and the excess is signaled, not silently dropped.
func TestReconcileCapacityExceeded(t *testing.T) {
	m, _ := newManager(t, 2)

	err := m.Reconcile([]Subject{{1}, {2}, {3}})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	if m.Binding(0).TrackingID != 1 || m.Binding(1).TrackingID != 2 {
		t.Error("first-capacity subjects were not processed before signaling")
	}
}

// TestReconcileShortFrame verifies a frame reporting fewer subjects than
// slots treats the remaining slots as untracked.
func TestReconcileShortFrame(t *testing.T) {
	m, fakes := newManager(t, 4)

	if err := m.Reconcile([]Subject{{1}, {2}, {3}, {4}}); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if err := m.Reconcile([]Subject{{1}, {2}}); err != nil {
		t.Fatalf("short Reconcile failed: %v", err)
	}

	for i := 2; i < 4; i++ {
		if !fakes[i].paused {
			t.Errorf("slot %d: expected paused after short frame", i)
		}
		if m.Binding(i).TrackingID != UntrackedID {
			t.Errorf("slot %d: expected untracked after short frame", i)
		}
	}
}

// TestNewManagerValidation verifies fail-fast construction.
func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil); !errors.Is(err, ErrNoDetectors) {
		t.Errorf("Expected ErrNoDetectors, got %v", err)
	}
	if _, err := NewManager([]Detector{&fakeDetector{}, nil}); err == nil {
		t.Error("Expected error for nil detector slot")
	}
}

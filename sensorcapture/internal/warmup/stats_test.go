package warmup

import (
	"math"
	"testing"
	"time"
)

func perfectCadence(n int, interval time.Duration) []time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * interval)
	}
	return times
}

func TestMeasureStableSource(t *testing.T) {
	// 10 frames at a perfect 100ms cadence over one second.
	times := perfectCadence(10, 100*time.Millisecond)
	stats := Measure(times, time.Second)

	if stats.FramesReceived != 10 {
		t.Errorf("FramesReceived = %d, want 10", stats.FramesReceived)
	}
	if math.Abs(stats.FPSMean-10.0) > 0.01 {
		t.Errorf("FPSMean = %.3f, want 10.0", stats.FPSMean)
	}
	if stats.FPSStdDev > 0.01 {
		t.Errorf("FPSStdDev = %.3f, want ~0 for perfect cadence", stats.FPSStdDev)
	}
	if stats.JitterMean > 0.001 {
		t.Errorf("JitterMean = %.4f, want ~0 for perfect cadence", stats.JitterMean)
	}
	if !stats.IsStable {
		t.Error("perfect cadence should be reported stable")
	}
}

func TestMeasureUnstableSource(t *testing.T) {
	// Alternating 50ms / 150ms intervals: same mean rate, heavy jitter.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base}
	for i := 0; i < 9; i++ {
		interval := 50 * time.Millisecond
		if i%2 == 1 {
			interval = 150 * time.Millisecond
		}
		times = append(times, times[len(times)-1].Add(interval))
	}
	stats := Measure(times, time.Second)

	if stats.IsStable {
		t.Errorf("alternating cadence should be unstable (stddev=%.2f jitter=%.3f)",
			stats.FPSStdDev, stats.JitterMean)
	}
	if stats.FPSMax <= stats.FPSMin {
		t.Errorf("FPSMax %.2f should exceed FPSMin %.2f", stats.FPSMax, stats.FPSMin)
	}
}

func TestMeasureNoFrames(t *testing.T) {
	stats := Measure(nil, time.Second)

	if stats.FramesReceived != 0 {
		t.Errorf("FramesReceived = %d, want 0", stats.FramesReceived)
	}
	if stats.IsStable {
		t.Error("empty measurement must not be stable")
	}
}

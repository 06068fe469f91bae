// Package warmup computes frame-rate stability statistics for the
// sensor warm-up phase.
package warmup

import (
	"math"
	"time"
)

const (
	// fpsStabilityThreshold is the maximum allowed FPS standard deviation
	// as a fraction of mean FPS. A source is stable if stddev < 15% of mean.
	fpsStabilityThreshold = 0.15

	// jitterStabilityThreshold is the maximum allowed mean jitter as a
	// fraction of the expected inter-frame interval.
	jitterStabilityThreshold = 0.20
)

// Stats holds the computed warm-up measurements.
type Stats struct {
	FramesReceived int
	Duration       time.Duration
	FPSMean        float64
	FPSStdDev      float64
	FPSMin         float64
	FPSMax         float64
	JitterMean     float64
	IsStable       bool
}

// Measure computes FPS statistics from frame arrival timestamps.
//
// The mean FPS is the overall rate; stddev, min and max come from the
// instantaneous FPS of each inter-frame interval; jitter is the mean
// absolute deviation of intervals from the expected interval. A source is
// stable when stddev < 15% of mean FPS and jitter < 20% of the expected
// interval.
func Measure(frameTimes []time.Time, totalDuration time.Duration) *Stats {
	n := len(frameTimes)
	if n == 0 || totalDuration <= 0 {
		return &Stats{Duration: totalDuration}
	}

	fpsMean := float64(n) / totalDuration.Seconds()

	intervals := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if dt := frameTimes[i].Sub(frameTimes[i-1]).Seconds(); dt > 0 {
			intervals = append(intervals, dt)
		}
	}
	if len(intervals) == 0 {
		return &Stats{FramesReceived: n, Duration: totalDuration, FPSMean: fpsMean}
	}

	fpsMin := math.Inf(1)
	fpsMax := math.Inf(-1)
	for _, dt := range intervals {
		fps := 1.0 / dt
		fpsMin = math.Min(fpsMin, fps)
		fpsMax = math.Max(fpsMax, fps)
	}

	// Standard deviation of instantaneous FPS around the mean.
	var variance float64
	for _, dt := range intervals {
		d := 1.0/dt - fpsMean
		variance += d * d
	}
	fpsStdDev := math.Sqrt(variance / float64(len(intervals)))

	// Jitter: mean absolute deviation from the expected interval.
	expectedInterval := 1.0 / fpsMean
	var jitterSum float64
	for _, dt := range intervals {
		jitterSum += math.Abs(dt - expectedInterval)
	}
	jitterMean := jitterSum / float64(len(intervals))

	return &Stats{
		FramesReceived: n,
		Duration:       totalDuration,
		FPSMean:        fpsMean,
		FPSStdDev:      fpsStdDev,
		FPSMin:         fpsMin,
		FPSMax:         fpsMax,
		JitterMean:     jitterMean,
		IsStable: fpsStdDev < fpsMean*fpsStabilityThreshold &&
			jitterMean < expectedInterval*jitterStabilityThreshold,
	}
}

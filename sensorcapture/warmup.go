package sensorcapture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/kinect-sense/sensorcapture/internal/warmup"
)

// measureWarmup drains the frame channel for the given duration and feeds
// the arrival times to the stability measurement. Frames consumed here are
// gone; warm-up runs before real consumers attach.
func measureWarmup(ctx context.Context, frames <-chan Frame, duration time.Duration) (*WarmupStats, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("sensorcapture: warmup duration must be positive")
	}

	start := time.Now()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	var arrivals []time.Time

collect:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			break collect
		case _, ok := <-frames:
			if !ok {
				break collect
			}
			arrivals = append(arrivals, time.Now())
		}
	}

	if len(arrivals) < 2 {
		return nil, fmt.Errorf("sensorcapture: warmup received %d frames, need at least 2", len(arrivals))
	}

	measured := warmup.Measure(arrivals, time.Since(start))

	slog.Info("sensorcapture: warmup complete",
		"frames", measured.FramesReceived,
		"fps_mean", fmt.Sprintf("%.2f", measured.FPSMean),
		"fps_stddev", fmt.Sprintf("%.2f", measured.FPSStdDev),
		"stable", measured.IsStable,
	)

	return &WarmupStats{
		FramesReceived: measured.FramesReceived,
		Duration:       measured.Duration,
		FPSMean:        measured.FPSMean,
		FPSStdDev:      measured.FPSStdDev,
		FPSMin:         measured.FPSMin,
		FPSMax:         measured.FPSMax,
		JitterMean:     measured.JitterMean,
		IsStable:       measured.IsStable,
	}, nil
}

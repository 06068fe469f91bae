package sensorcapture

import (
	"context"
	"testing"
	"time"
)

func startSimulator(t *testing.T, cfg SimulatorConfig) (*Simulator, <-chan Frame) {
	t.Helper()

	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	frames, err := sim.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { sim.Stop() })
	return sim, frames
}

func nextFrame(t *testing.T, frames <-chan Frame) Frame {
	t.Helper()

	select {
	case frame, ok := <-frames:
		if !ok {
			t.Fatal("frame channel closed unexpectedly")
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return Frame{}
}

func TestSimulatorDeliversInfraredFrames(t *testing.T) {
	_, frames := startSimulator(t, SimulatorConfig{
		Kind:      KindInfrared,
		Width:     64,
		Height:    48,
		TargetFPS: 30,
	})

	frame := nextFrame(t, frames)

	if frame.Kind != KindInfrared {
		t.Errorf("Kind = %v, want infrared", frame.Kind)
	}
	if frame.Width != 64 || frame.Height != 48 {
		t.Errorf("geometry = %dx%d, want 64x48", frame.Width, frame.Height)
	}
	if len(frame.Samples) != 64*48 {
		t.Errorf("len(Samples) = %d, want %d", len(frame.Samples), 64*48)
	}
	if frame.Seq == 0 {
		t.Error("Seq must start at 1")
	}
	if frame.TraceID == "" {
		t.Error("TraceID must be set")
	}
}

func TestSimulatorDepthPattern(t *testing.T) {
	window := DepthRange{Min: 500, Max: 4500}
	_, frames := startSimulator(t, SimulatorConfig{
		Kind:       KindDepth,
		Width:      64,
		Height:     48,
		TargetFPS:  30,
		DepthRange: window,
	})

	frame := nextFrame(t, frames)

	if frame.DepthRange != window {
		t.Errorf("DepthRange = %+v, want %+v", frame.DepthRange, window)
	}

	// Dome pattern: nearest at the center, sentinel zeros at the corners.
	center := frame.Samples[24*64+32]
	if center != 500 {
		t.Errorf("center sample = %d, want 500", center)
	}
	if corner := frame.Samples[0]; corner != 0 {
		t.Errorf("corner sample = %d, want sentinel 0", corner)
	}
}

func TestSimulatorStopIdempotent(t *testing.T) {
	sim, frames := startSimulator(t, SimulatorConfig{
		Kind:      KindInfrared,
		TargetFPS: 30,
	})

	if err := sim.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// The channel handed out by Start must be closed after Stop.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel not closed after Stop")
		}
	}
}

func TestSimulatorStartTwice(t *testing.T) {
	sim, _ := startSimulator(t, SimulatorConfig{
		Kind:      KindInfrared,
		TargetFPS: 30,
	})

	if _, err := sim.Start(context.Background()); err == nil {
		t.Error("second Start must fail while running")
	}
}

func TestSimulatorConfigValidation(t *testing.T) {
	if _, err := NewSimulator(SimulatorConfig{TargetFPS: 0}); err == nil {
		t.Error("zero FPS must be rejected")
	}
	if _, err := NewSimulator(SimulatorConfig{TargetFPS: 31}); err == nil {
		t.Error("FPS above 30 must be rejected")
	}
	if _, err := NewSimulator(SimulatorConfig{TargetFPS: 15, Width: -1, Height: 10}); err == nil {
		t.Error("negative width must be rejected")
	}
}

func TestSimulatorSetTargetFPS(t *testing.T) {
	sim, _ := startSimulator(t, SimulatorConfig{
		Kind:      KindInfrared,
		TargetFPS: 30,
	})

	if err := sim.SetTargetFPS(50); err == nil {
		t.Error("FPS above 30 must be rejected")
	}
	if err := sim.SetTargetFPS(5); err != nil {
		t.Errorf("SetTargetFPS(5): %v", err)
	}
	if got := sim.Stats().FPSTarget; got != 5 {
		t.Errorf("FPSTarget = %.1f, want 5", got)
	}
}

func TestSimulatorWarmup(t *testing.T) {
	sim, _ := startSimulator(t, SimulatorConfig{
		Kind:      KindInfrared,
		Width:     32,
		Height:    32,
		TargetFPS: 30,
	})

	stats, err := sim.Warmup(context.Background(), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if stats.FramesReceived < 2 {
		t.Errorf("FramesReceived = %d, want at least 2", stats.FramesReceived)
	}
	if stats.FPSMean <= 0 {
		t.Errorf("FPSMean = %.2f, want > 0", stats.FPSMean)
	}
}

func TestSimulatorStats(t *testing.T) {
	sim, frames := startSimulator(t, SimulatorConfig{
		Kind:      KindDepth,
		Width:     32,
		Height:    32,
		TargetFPS: 30,
	})

	nextFrame(t, frames)

	stats := sim.Stats()
	if !stats.IsRunning {
		t.Error("IsRunning must be true after Start")
	}
	if stats.FrameCount == 0 {
		t.Error("FrameCount must advance once a frame was delivered")
	}
	if stats.Resolution != "32x32" {
		t.Errorf("Resolution = %q, want 32x32", stats.Resolution)
	}
	if stats.Kind != KindDepth {
		t.Errorf("Kind = %v, want depth", stats.Kind)
	}
}

func TestBodySimulatorReplaysScript(t *testing.T) {
	body, err := NewBodySimulator(BodySimConfig{
		Script: [][]uint64{{71}, {71, 72}, {0, 72}},
		FPS:    30,
	})
	if err != nil {
		t.Fatalf("NewBodySimulator: %v", err)
	}
	if body.Capacity() != SensorBodyCapacity {
		t.Errorf("Capacity = %d, want %d", body.Capacity(), SensorBodyCapacity)
	}

	frames, err := body.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer body.Stop()

	read := func() BodyFrame {
		select {
		case f := <-frames:
			return f
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a body frame")
		}
		return BodyFrame{}
	}

	first := read()
	if len(first.TrackingIDs) != SensorBodyCapacity {
		t.Fatalf("slot vector length = %d, want %d", len(first.TrackingIDs), SensorBodyCapacity)
	}
	if first.TrackingIDs[0] != 71 || first.TrackingIDs[1] != 0 {
		t.Errorf("first frame slots = %v, want [71 0 ...]", first.TrackingIDs[:2])
	}

	second := read()
	if second.TrackingIDs[1] != 72 {
		t.Errorf("second frame slot 1 = %d, want 72", second.TrackingIDs[1])
	}

	third := read()
	if third.TrackingIDs[0] != 0 || third.TrackingIDs[1] != 72 {
		t.Errorf("third frame slots = %v, want [0 72 ...]", third.TrackingIDs[:2])
	}

	// The script is exhausted; without looping the final state repeats.
	fourth := read()
	if fourth.TrackingIDs[1] != 72 {
		t.Errorf("exhausted script should repeat the final entry, got %v", fourth.TrackingIDs[:2])
	}
}

func TestBodySimulatorStopIsFinal(t *testing.T) {
	body, err := NewBodySimulator(BodySimConfig{
		Script: [][]uint64{{1}},
		FPS:    30,
	})
	if err != nil {
		t.Fatalf("NewBodySimulator: %v", err)
	}

	frames, err := body.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := body.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := body.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// The channel is closed for good; a restart would replay into it.
	if _, err := body.Start(context.Background()); err == nil {
		t.Error("Start after Stop must fail")
	}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("body frame channel not closed after Stop")
		}
	}
}

func TestBodySimulatorValidation(t *testing.T) {
	if _, err := NewBodySimulator(BodySimConfig{FPS: 30}); err == nil {
		t.Error("empty script must be rejected")
	}
	if _, err := NewBodySimulator(BodySimConfig{Script: [][]uint64{{1}}, FPS: 0}); err == nil {
		t.Error("zero FPS must be rejected")
	}
}

func TestNewReplayStreamValidation(t *testing.T) {
	if _, err := NewReplayStream(ReplayConfig{TargetFPS: 15}); err == nil {
		t.Error("missing source URI must be rejected")
	}
	if _, err := NewReplayStream(ReplayConfig{SourceURI: TestSourceURI, TargetFPS: 0}); err == nil {
		t.Error("zero FPS must be rejected")
	}

	stream, err := NewReplayStream(ReplayConfig{SourceURI: TestSourceURI, TargetFPS: 15})
	if err != nil {
		t.Fatalf("NewReplayStream: %v", err)
	}

	stats := stream.Stats()
	if stats.Resolution != "512x424" {
		t.Errorf("default resolution = %q, want 512x424", stats.Resolution)
	}
	if stats.IsRunning {
		t.Error("stream must not report running before Start")
	}

	// Stopping a never-started stream is a no-op.
	if err := stream.Stop(); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}

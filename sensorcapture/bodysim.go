package sensorcapture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SensorBodyCapacity is the number of subjects the sensor tracks at once.
const SensorBodyCapacity = 6

// BodySimConfig contains configuration for the scripted body source.
type BodySimConfig struct {
	// Script is the sequence of body frames to replay, one entry per frame.
	// Each entry holds tracking identifiers in slot order; zero means the
	// slot is unoccupied. Entries shorter than the capacity are padded with
	// zeros, longer ones are delivered as-is.
	Script [][]uint64
	// FPS is the delivery rate (0.1 - 30.0).
	FPS float64
	// Loop restarts the script from the beginning when exhausted. When
	// false the channel keeps delivering the final entry, mirroring a
	// sensor whose scene stopped changing.
	Loop bool
}

// BodySimulator implements BodyProvider by replaying a scripted sequence of
// tracking identifiers. It stands in for the sensor's body runtime, whose
// native SDK only exists on the capture host.
type BodySimulator struct {
	script [][]uint64
	fps    float64
	loop   bool

	frames  chan BodyFrame
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewBodySimulator creates a scripted body provider.
func NewBodySimulator(cfg BodySimConfig) (*BodySimulator, error) {
	if len(cfg.Script) == 0 {
		return nil, fmt.Errorf("sensorcapture: body script is empty")
	}
	if cfg.FPS < 0.1 || cfg.FPS > 30 {
		return nil, fmt.Errorf("sensorcapture: invalid FPS %.2f (must be 0.1-30)", cfg.FPS)
	}

	return &BodySimulator{
		script: cfg.Script,
		fps:    cfg.FPS,
		loop:   cfg.Loop,
		frames: make(chan BodyFrame, 10),
	}, nil
}

// Start launches the replay goroutine and returns the body frame channel.
// A stopped simulator cannot be restarted; its channel is closed for good.
func (b *BodySimulator) Start(ctx context.Context) (<-chan BodyFrame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return nil, fmt.Errorf("sensorcapture: body simulator already stopped")
	}
	if b.cancel != nil {
		return nil, fmt.Errorf("sensorcapture: body simulator already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go b.replay(runCtx)

	slog.Info("sensorcapture: body simulator started",
		"script_frames", len(b.script),
		"fps", b.fps,
		"loop", b.loop,
	)

	return b.frames, nil
}

func (b *BodySimulator) replay(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / b.fps))
	defer ticker.Stop()

	var seq uint64
	cursor := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			frame := BodyFrame{
				TrackingIDs: b.slotIDs(cursor),
				Seq:         seq,
				Timestamp:   time.Now(),
			}

			select {
			case b.frames <- frame:
			default:
				// Body frames are volatile state snapshots; a stale one
				// is worthless, so drop instead of queueing.
			}

			if cursor < len(b.script)-1 {
				cursor++
			} else if b.loop {
				cursor = 0
			}
		}
	}
}

// slotIDs pads the script entry out to the sensor capacity so consumers
// always see a full slot vector.
func (b *BodySimulator) slotIDs(cursor int) []uint64 {
	entry := b.script[cursor]
	ids := make([]uint64, SensorBodyCapacity)
	copy(ids, entry)
	if len(entry) > SensorBodyCapacity {
		ids = append(ids[:0:0], entry...)
	}
	return ids
}

// Stop shuts down the replay goroutine. Idempotent.
func (b *BodySimulator) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel == nil || b.stopped {
		return nil
	}

	b.cancel()
	b.wg.Wait()
	close(b.frames)

	b.stopped = true
	slog.Info("sensorcapture: body simulator stopped")
	return nil
}

// Capacity returns the sensor's simultaneous subject limit.
func (b *BodySimulator) Capacity() int {
	return SensorBodyCapacity
}

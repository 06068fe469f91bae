package sensorcapture

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SimulatorConfig contains configuration for the synthetic frame source.
type SimulatorConfig struct {
	// Kind selects the sample pattern (infrared gradient or depth dome).
	Kind StreamKind
	// Width/Height default to the sensor geometry (512x424).
	Width  int
	Height int
	// TargetFPS is the frame pacing rate (0.1 - 30.0).
	TargetFPS float64
	// DepthRange is stamped on depth frames. Zero Max means full range.
	DepthRange DepthRange
}

// Simulator implements FrameProvider with deterministic synthetic frames.
// It needs no sensor hardware and no GStreamer runtime, which makes it the
// provider of choice for tests and for exercising the pipeline on a laptop.
//
// Infrared frames hold a horizontal gradient across the full 16-bit range.
// Depth frames hold a dome: near in the center, far at the edges, with the
// corners forced to zero so sentinel suppression has something to chew on.
type Simulator struct {
	kind       StreamKind
	width      int
	height     int
	depthRange DepthRange

	targetFPS uint64 // atomic, math.Float64bits

	frames       chan Frame
	framesClosed atomic.Bool
	mu           sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	frameCount     uint64 // atomic
	framesDropped  uint64 // atomic
	bytesRead      uint64 // atomic
	lastFrameNanos int64  // atomic, unix nanos of the latest delivery
	started        time.Time
}

// NewSimulator creates a synthetic frame provider with fail-fast validation.
func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if cfg.TargetFPS < 0.1 || cfg.TargetFPS > 30 {
		return nil, fmt.Errorf("sensorcapture: invalid FPS %.2f (must be 0.1-30)", cfg.TargetFPS)
	}
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("sensorcapture: invalid geometry %dx%d", cfg.Width, cfg.Height)
	}

	s := &Simulator{
		kind:       cfg.Kind,
		width:      cfg.Width,
		height:     cfg.Height,
		depthRange: cfg.DepthRange,
		frames:     make(chan Frame, 10),
	}
	atomic.StoreUint64(&s.targetFPS, math.Float64bits(cfg.TargetFPS))

	return s, nil
}

// Start launches the pacing goroutine and returns the frame channel.
func (s *Simulator) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, fmt.Errorf("sensorcapture: simulator already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	s.wg.Add(1)
	go s.generate(s.ctx)

	slog.Info("sensorcapture: simulator started",
		"kind", s.kind.String(),
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"target_fps", s.currentFPS(),
	)

	return s.frames, nil
}

func (s *Simulator) currentFPS() float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.targetFPS))
}

func (s *Simulator) generate(ctx context.Context) {
	defer s.wg.Done()

	fps := s.currentFPS()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Hot-reload: re-arm the ticker when the target changed.
			if current := s.currentFPS(); current != fps {
				fps = current
				ticker.Reset(time.Duration(float64(time.Second) / fps))
			}

			seq++
			frame := Frame{
				Samples:    s.synthesize(seq),
				Width:      s.width,
				Height:     s.height,
				Kind:       s.kind,
				DepthRange: s.depthRange,
				Seq:        seq,
				Timestamp:  time.Now(),
				TraceID:    uuid.New().String(),
			}

			atomic.StoreInt64(&s.lastFrameNanos, time.Now().UnixNano())

			select {
			case s.frames <- frame:
				atomic.AddUint64(&s.frameCount, 1)
				atomic.AddUint64(&s.bytesRead, uint64(len(frame.Samples)*2))
			default:
				atomic.AddUint64(&s.framesDropped, 1)
			}
		}
	}
}

// synthesize builds one deterministic sample plane. The seq offset animates
// the pattern so consecutive frames differ.
func (s *Simulator) synthesize(seq uint64) []uint16 {
	samples := make([]uint16, s.width*s.height)

	switch s.kind {
	case KindDepth:
		cx, cy := float64(s.width)/2, float64(s.height)/2
		maxDist := math.Hypot(cx, cy)
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				dist := math.Hypot(float64(x)-cx, float64(y)-cy)
				// 500mm at the center out to 4500mm at the corners.
				depth := 500 + dist/maxDist*4000
				if dist > maxDist*0.95 {
					depth = 0 // no-reading sentinel ring
				}
				samples[y*s.width+x] = uint16(depth)
			}
		}
	default:
		shift := int(seq % uint64(s.width))
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				samples[y*s.width+x] = uint16(((x + shift) * 65535) / s.width)
			}
		}
	}

	return samples
}

// Stop shuts down the generator. Idempotent.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	s.wg.Wait()

	if s.framesClosed.CompareAndSwap(false, true) {
		close(s.frames)
	}

	slog.Info("sensorcapture: simulator stopped",
		"frames_generated", atomic.LoadUint64(&s.frameCount),
		"uptime", time.Since(s.started),
	)

	s.cancel = nil
	s.ctx = nil
	s.frames = make(chan Frame, 10)
	s.framesClosed.Store(false)

	return nil
}

// Stats returns current simulator statistics (thread-safe).
func (s *Simulator) Stats() StreamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frameCount := atomic.LoadUint64(&s.frameCount)
	framesDropped := atomic.LoadUint64(&s.framesDropped)

	var fpsReal float64
	if !s.started.IsZero() {
		if uptime := time.Since(s.started).Seconds(); uptime > 0 {
			fpsReal = float64(frameCount) / uptime
		}
	}

	var dropRate float64
	if total := frameCount + framesDropped; total > 0 {
		dropRate = float64(framesDropped) / float64(total) * 100.0
	}

	var latencyMS int64
	if nanos := atomic.LoadInt64(&s.lastFrameNanos); nanos != 0 {
		latencyMS = time.Since(time.Unix(0, nanos)).Milliseconds()
	}

	return StreamStats{
		FrameCount:    frameCount,
		FramesDropped: framesDropped,
		DropRate:      dropRate,
		FPSTarget:     s.currentFPS(),
		FPSReal:       fpsReal,
		LatencyMS:     latencyMS,
		Resolution:    fmt.Sprintf("%dx%d", s.width, s.height),
		Kind:          s.kind,
		BytesRead:     atomic.LoadUint64(&s.bytesRead),
		IsRunning:     s.cancel != nil,
	}
}

// SetTargetFPS updates the pacing rate; the generator picks it up on the
// next tick.
func (s *Simulator) SetTargetFPS(fps float64) error {
	if fps < 0.1 || fps > 30 {
		return fmt.Errorf("sensorcapture: invalid FPS %.2f (must be 0.1-30)", fps)
	}
	atomic.StoreUint64(&s.targetFPS, math.Float64bits(fps))
	return nil
}

// Warmup consumes frames for the given duration and measures FPS stability.
func (s *Simulator) Warmup(ctx context.Context, duration time.Duration) (*WarmupStats, error) {
	s.mu.RLock()
	running := s.cancel != nil
	frames := s.frames
	s.mu.RUnlock()

	if !running {
		return nil, fmt.Errorf("sensorcapture: simulator not running")
	}
	return measureWarmup(ctx, frames, duration)
}

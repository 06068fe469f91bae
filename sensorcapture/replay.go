package sensorcapture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/kinect-sense/sensorcapture/internal/gstpipe"
)

// TestSourceURI selects a synthetic GStreamer test source instead of a
// recorded capture file.
const TestSourceURI = gstpipe.TestSourceURI

// ReplayConfig contains configuration for replaying a recorded capture.
type ReplayConfig struct {
	// SourceURI is the capture file path, or TestSourceURI (required).
	SourceURI string
	// Kind identifies which sensor stream the capture holds.
	Kind StreamKind
	// Width/Height default to the sensor geometry (512x424).
	Width  int
	Height int
	// TargetFPS is the target frame rate (0.1 - 30.0).
	TargetFPS float64
	// DepthRange is the reliable window stamped on depth frames. Recorded
	// captures carry no live range metadata, so the recorded sensor's
	// window is supplied here. Zero Max means full range.
	DepthRange DepthRange
	// Loop restarts the capture from the beginning on end-of-stream.
	Loop bool
}

// ReplayStream implements FrameProvider on top of a GStreamer pipeline that
// replays recorded sensor captures as GRAY16 sample frames.
type ReplayStream struct {
	sourceURI  string
	kind       StreamKind
	width      int
	height     int
	targetFPS  float64
	depthRange DepthRange
	loop       bool

	elements *gstpipe.PipelineElements

	frames       chan Frame
	framesClosed atomic.Bool
	mu           sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	frameCount     uint64 // atomic
	framesDropped  uint64 // atomic
	bytesRead      uint64 // atomic
	loops          uint32 // atomic
	lastFrameNanos int64  // atomic, unix nanos of the latest delivery
	started        time.Time
}

// NewReplayStream creates a replay provider with fail-fast validation.
func NewReplayStream(cfg ReplayConfig) (*ReplayStream, error) {
	if cfg.SourceURI == "" {
		return nil, fmt.Errorf("sensorcapture: source URI is required")
	}
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

	s := &ReplayStream{
		sourceURI:  cfg.SourceURI,
		kind:       cfg.Kind,
		width:      cfg.Width,
		height:     cfg.Height,
		targetFPS:  cfg.TargetFPS,
		depthRange: cfg.DepthRange,
		loop:       cfg.Loop,
		frames:     make(chan Frame, 10),
	}

	slog.Info("sensorcapture: replay stream created",
		"source", cfg.SourceURI,
		"kind", cfg.Kind.String(),
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"target_fps", cfg.TargetFPS,
	)

	return s, nil
}

// Start builds the pipeline, moves it to PLAYING and returns the frame
// channel. Frames arrive asynchronously once the pipeline is live.
func (s *ReplayStream) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, fmt.Errorf("sensorcapture: stream already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	elements, err := gstpipe.CreateReplayPipeline(gstpipe.PipelineConfig{
		SourceURI: s.sourceURI,
		Width:     s.width,
		Height:    s.height,
		TargetFPS: s.targetFPS,
	})
	if err != nil {
		return nil, fmt.Errorf("sensorcapture: failed to create pipeline: %w", err)
	}
	s.elements = elements

	// Internal channel decouples the GStreamer callback from the public
	// frame type (and avoids an import cycle with gstpipe).
	internalFrames := make(chan gstpipe.Frame, 10)

	callbackCtx := &gstpipe.CallbackContext{
		FrameChan:     internalFrames,
		FrameCounter:  &s.frameCount,
		BytesRead:     &s.bytesRead,
		FramesDropped: &s.framesDropped,
		Width:         s.width,
		Height:        s.height,
	}

	localCtx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case <-localCtx.Done():
				return
			case internalFrame := <-internalFrames:
				frame := Frame{
					Samples:    internalFrame.Samples,
					Width:      internalFrame.Width,
					Height:     internalFrame.Height,
					Kind:       s.kind,
					DepthRange: s.depthRange,
					Seq:        internalFrame.Seq,
					Timestamp:  internalFrame.Timestamp,
					TraceID:    internalFrame.TraceID,
				}

				atomic.StoreInt64(&s.lastFrameNanos, time.Now().UnixNano())

				select {
				case s.frames <- frame:
				case <-localCtx.Done():
					return
				default:
					atomic.AddUint64(&s.framesDropped, 1)
					slog.Debug("sensorcapture: dropping frame, channel full",
						"seq", frame.Seq,
						"trace_id", frame.TraceID,
					)
				}
			}
		}
	}()

	s.elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return gstpipe.OnNewSample(sink, callbackCtx)
		},
	})

	if s.elements.Decoded {
		convert := s.elements.Convert
		s.elements.Source.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
			gstpipe.OnPadAdded(self, srcPad, convert)
		})
	}

	if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("sensorcapture: failed to start pipeline: %w", err)
	}

	s.wg.Add(1)
	go s.monitorPipeline()

	slog.Info("sensorcapture: replay stream started", "source", s.sourceURI)

	return s.frames, nil
}

// monitorPipeline watches the pipeline bus: EOS either loops the capture or
// ends delivery; errors are classified, logged and end delivery. The next
// Start is the retry - a broken capture file does not resolve itself.
func (s *ReplayStream) monitorPipeline() {
	defer s.wg.Done()

	bus := s.elements.Pipeline.GetPipelineBus()

	for {
		select {
		case <-s.ctx.Done():
			slog.Debug("sensorcapture: context cancelled, stopping pipeline monitor")
			return

		default:
			// Short poll timeout keeps shutdown responsive.
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				if s.loop {
					if err := gstpipe.RestartFromEOS(s.elements); err != nil {
						slog.Error("sensorcapture: failed to loop capture", "error", err)
						return
					}
					atomic.AddUint32(&s.loops, 1)
					slog.Debug("sensorcapture: capture looped",
						"loops", atomic.LoadUint32(&s.loops))
					continue
				}
				slog.Info("sensorcapture: end of capture",
					"frames_processed", atomic.LoadUint64(&s.frameCount),
					"uptime", time.Since(s.started),
				)
				return

			case gst.MessageError:
				gerr := msg.ParseError()
				category := gstpipe.ClassifyError(gerr)
				slog.Error("sensorcapture: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"source", s.sourceURI,
					"uptime", time.Since(s.started),
				)
				return
			}
		}
	}
}

// Stop gracefully shuts down the stream. Idempotent: stopping a stream
// that never started (or stopped already) is a no-op.
func (s *ReplayStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		slog.Debug("sensorcapture: stream not started, nothing to stop")
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		slog.Warn("sensorcapture: stop timeout exceeded, some goroutines may still be running")
	}

	if s.elements != nil {
		if err := gstpipe.DestroyPipeline(s.elements); err != nil {
			slog.Error("sensorcapture: failed to destroy pipeline", "error", err)
		}
		s.elements = nil
	}

	// Close exactly once, even across Stop/Start cycles.
	if s.framesClosed.CompareAndSwap(false, true) {
		close(s.frames)
	}

	slog.Info("sensorcapture: replay stream stopped",
		"frames_captured", atomic.LoadUint64(&s.frameCount),
		"loops", atomic.LoadUint32(&s.loops),
		"uptime", time.Since(s.started),
	)

	s.cancel = nil
	s.ctx = nil
	s.frames = make(chan Frame, 10)
	s.framesClosed.Store(false)

	return nil
}

// Stats returns current stream statistics (thread-safe).
func (s *ReplayStream) Stats() StreamStats {
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
		FPSTarget:     s.targetFPS,
		FPSReal:       fpsReal,
		LatencyMS:     latencyMS,
		Resolution:    fmt.Sprintf("%dx%d", s.width, s.height),
		Kind:          s.kind,
		Loops:         atomic.LoadUint32(&s.loops),
		BytesRead:     atomic.LoadUint64(&s.bytesRead),
		IsRunning:     s.cancel != nil,
	}
}

// SetTargetFPS updates the target FPS via capsfilter hot-reload. On failure
// the previous value is restored.
func (s *ReplayStream) SetTargetFPS(fps float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fps < 0.1 || fps > 30 {
		return fmt.Errorf("sensorcapture: invalid FPS %.2f (must be 0.1-30)", fps)
	}
	if s.elements == nil {
		return fmt.Errorf("sensorcapture: stream not running")
	}

	previous := s.targetFPS
	s.targetFPS = fps

	if err := gstpipe.UpdateFramerateCaps(s.elements.CapsFilter, fps, s.width, s.height); err != nil {
		s.targetFPS = previous
		return fmt.Errorf("sensorcapture: failed to update framerate: %w", err)
	}

	slog.Info("sensorcapture: target FPS updated", "from", previous, "to", fps)
	return nil
}

// Warmup consumes frames for the given duration and measures FPS stability.
func (s *ReplayStream) Warmup(ctx context.Context, duration time.Duration) (*WarmupStats, error) {
	s.mu.RLock()
	running := s.cancel != nil
	frames := s.frames
	s.mu.RUnlock()

	if !running {
		return nil, fmt.Errorf("sensorcapture: stream not running")
	}
	return measureWarmup(ctx, frames, duration)
}

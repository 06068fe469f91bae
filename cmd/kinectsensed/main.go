// Command kinectsensed runs the sensor pipeline: it acquires 16-bit sensor
// frames (simulated or replayed from a capture), converts them to grayscale
// RGBA, fans the pixels out to consumers, reconciles tracked subjects
// against gesture detector slots, and exposes stats, metrics and a live
// preview over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/e7canasta/kinect-sense/bodytrack"
	"github.com/e7canasta/kinect-sense/eventfeed"
	"github.com/e7canasta/kinect-sense/internal/httpapi"
	"github.com/e7canasta/kinect-sense/internal/platform/config"
	"github.com/e7canasta/kinect-sense/internal/platform/logger"
	"github.com/e7canasta/kinect-sense/internal/platform/metrics"
	"github.com/e7canasta/kinect-sense/netcast"
	"github.com/e7canasta/kinect-sense/pixelfeed"
	"github.com/e7canasta/kinect-sense/pixelpipe"
	"github.com/e7canasta/kinect-sense/sensorcapture"
)

const shutdownTimeout = 10 * time.Second

// defaultBodyScript drives the built-in body source: two subjects enter,
// one leaves and is replaced, then the scene empties. Looped.
var defaultBodyScript = [][]uint64{
	{},
	{101},
	{101, 102},
	{101, 102},
	{0, 102},
	{103, 102},
	{103, 102},
	{103},
	{},
}

func main() {
	_ = config.Load()
	cfg := loadConfig()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("daemon failed", "error", err)
		os.Exit(1)
	}
	log.Info("daemon stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	met := metrics.New()

	kind := sensorcapture.KindDepth
	if cfg.StreamKind == "infrared" {
		kind = sensorcapture.KindInfrared
	}
	depthRange := sensorcapture.DepthRange{Min: uint16(cfg.MinDepth), Max: uint16(cfg.MaxDepth)}

	provider, err := buildProvider(cfg, kind, depthRange)
	if err != nil {
		return err
	}

	frames, err := provider.Start(ctx)
	if err != nil {
		return err
	}
	defer provider.Stop()

	if cfg.WarmupSeconds > 0 {
		warm, err := provider.Warmup(ctx, time.Duration(cfg.WarmupSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("warmup failed: %w", err)
		}
		if !warm.IsStable {
			log.Warn("source is unstable, continuing anyway",
				"fps_mean", warm.FPSMean, "fps_stddev", warm.FPSStdDev)
		}
	}

	// Pixel side: convert, then fan out to preview and caster.
	converter, depthMapper, err := buildConverter(cfg, kind)
	if err != nil {
		return err
	}

	feed := pixelfeed.New()
	if err := feed.Start(ctx); err != nil {
		return err
	}
	defer feed.Stop()

	preview := &previewStore{}
	go preview.follow(feed.Subscribe("http-preview"))

	var caster *netcast.Caster
	if cfg.CastGroup != "" && kind == sensorcapture.KindDepth {
		group, err := netip.ParseAddrPort(cfg.CastGroup)
		if err != nil {
			return fmt.Errorf("invalid cast group %q: %w", cfg.CastGroup, err)
		}
		caster, err = netcast.NewCaster(group)
		if err != nil {
			return err
		}
		defer caster.Close()
		caster.SetDepthThreshold(uint16(cfg.CastThreshold))
	}

	// Body side: scripted source into the detector lifecycle manager,
	// gesture events onto the bus.
	bus := eventfeed.New()
	defer bus.Close()

	track, bodySource, err := startBodyPipeline(ctx, bus, met, log)
	if err != nil {
		return err
	}
	defer bodySource.Stop()

	go logGestureEvents(bus, log)

	// HTTP observation surface.
	handler := httpapi.NewHandler(log, met, func() any {
		return statsDocument(provider, feed, bus, track, caster)
	}, preview)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.Router(func() {
			track.mu.Lock()
			met.SetActiveSubjects(track.manager.Stats().ActiveSlots)
			track.mu.Unlock()
			met.SetCaptureFPS(kind.String(), provider.Stats().FPSReal)
		}),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
		}
	}()

	log.Info("daemon started",
		"port", cfg.Port,
		"source", cfg.SourceURI,
		"kind", kind.String(),
		"target_fps", cfg.TargetFPS,
		"cast_group", cfg.CastGroup,
	)

	// Conversion loop: one frame in flight at a time, copy-out before
	// publish, mismatches dropped whole.
	convertFrames(ctx, frames, converter, depthMapper, feed, caster, met, log, kind)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", "error", err)
	}
	return nil
}

func buildProvider(cfg appConfig, kind sensorcapture.StreamKind, depthRange sensorcapture.DepthRange) (sensorcapture.FrameProvider, error) {
	if cfg.SourceURI == "sim" {
		return sensorcapture.NewSimulator(sensorcapture.SimulatorConfig{
			Kind:       kind,
			Width:      cfg.Width,
			Height:     cfg.Height,
			TargetFPS:  cfg.TargetFPS,
			DepthRange: depthRange,
		})
	}
	return sensorcapture.NewReplayStream(sensorcapture.ReplayConfig{
		SourceURI:  cfg.SourceURI,
		Kind:       kind,
		Width:      cfg.Width,
		Height:     cfg.Height,
		TargetFPS:  cfg.TargetFPS,
		DepthRange: depthRange,
		Loop:       cfg.Loop,
	})
}

// buildConverter returns the converter plus the depth mapper when the
// stream is depth, so the conversion loop can refresh the reliable range
// from per-frame sensor metadata.
func buildConverter(cfg appConfig, kind sensorcapture.StreamKind) (*pixelpipe.Converter, *pixelpipe.DepthMapper, error) {
	width, height := cfg.Width, cfg.Height
	if width == 0 {
		width = sensorcapture.DefaultWidth
	}
	if height == 0 {
		height = sensorcapture.DefaultHeight
	}

	if kind == sensorcapture.KindDepth {
		mapper := pixelpipe.NewDepthMapper(uint16(cfg.MinDepth), uint16(cfg.MaxDepth))
		conv, err := pixelpipe.NewConverter(width, height, mapper)
		return conv, mapper, err
	}
	conv, err := pixelpipe.NewConverter(width, height, pixelpipe.NewInfraredMapper(pixelpipe.DefaultInfraredCalibration()))
	return conv, nil, err
}

func convertFrames(
	ctx context.Context,
	frames <-chan sensorcapture.Frame,
	converter *pixelpipe.Converter,
	depthMapper *pixelpipe.DepthMapper,
	feed pixelfeed.Feed,
	caster *netcast.Caster,
	met *metrics.Metrics,
	log *slog.Logger,
	kind sensorcapture.StreamKind,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}

			if depthMapper != nil && frame.DepthRange.Max != 0 {
				depthMapper.SetReliableRange(frame.DepthRange.Min, frame.DepthRange.Max)
			}

			start := time.Now()
			_, err := converter.Convert(&pixelpipe.RawFrame{
				Samples:   frame.Samples,
				Width:     frame.Width,
				Height:    frame.Height,
				Seq:       frame.Seq,
				Timestamp: frame.Timestamp,
				TraceID:   frame.TraceID,
			})
			if err != nil {
				met.IncFramesDropped(kind.String())
				log.Warn("frame dropped", "error", err, "trace_id", frame.TraceID)
				continue
			}
			met.ObserveConversion(time.Since(start))
			met.IncFramesConverted(kind.String())

			feed.Publish(&pixelfeed.Frame{
				Pixels:    converter.CopyOut(),
				Width:     frame.Width,
				Height:    frame.Height,
				Timestamp: frame.Timestamp,
				SourceSeq: frame.Seq,
			})

			if caster != nil {
				if err := caster.Cast(frame.Samples, frame.Width, frame.Height, frame.Seq); err != nil {
					log.Warn("mask broadcast failed", "error", err)
				} else {
					met.IncMasksBroadcast()
				}
			}
		}
	}
}

// trackState serializes access to the manager between the reconcile loop
// and HTTP stats snapshots.
type trackState struct {
	mu      sync.Mutex
	manager *bodytrack.Manager
}

func startBodyPipeline(ctx context.Context, bus eventfeed.Bus, met *metrics.Metrics, log *slog.Logger) (*trackState, sensorcapture.BodyProvider, error) {
	bodySource, err := sensorcapture.NewBodySimulator(sensorcapture.BodySimConfig{
		Script: defaultBodyScript,
		FPS:    2,
		Loop:   true,
	})
	if err != nil {
		return nil, nil, err
	}

	detectors := make([]bodytrack.Detector, bodySource.Capacity())
	for i := range detectors {
		detectors[i] = &presenceDetector{slot: i, bus: bus}
	}

	manager, err := bodytrack.NewManager(detectors)
	if err != nil {
		return nil, nil, err
	}
	track := &trackState{manager: manager}

	bodyFrames, err := bodySource.Start(ctx)
	if err != nil {
		return nil, nil, err
	}

	go func() {
		var lastRebinds uint64
		for bodyFrame := range bodyFrames {
			subjects := make([]bodytrack.Subject, len(bodyFrame.TrackingIDs))
			for i, id := range bodyFrame.TrackingIDs {
				subjects[i] = bodytrack.Subject{TrackingID: id}
			}

			track.mu.Lock()
			err := track.manager.Reconcile(subjects)
			stats := track.manager.Stats()
			track.mu.Unlock()

			if errors.Is(err, bodytrack.ErrCapacityExceeded) {
				met.IncCapacityErrors()
				log.Warn("body frame over capacity", "error", err)
			}

			var rebinds uint64
			for _, slot := range stats.Slots {
				rebinds += slot.Rebinds
			}
			for ; lastRebinds < rebinds; lastRebinds++ {
				met.IncRebinds()
			}
		}
	}()

	return track, bodySource, nil
}

// logGestureEvents drains the bus as a DropNew subscriber so gesture
// activity shows up in the daemon log.
func logGestureEvents(bus eventfeed.Bus, log *slog.Logger) {
	events := make(chan eventfeed.Event, 16)
	if err := bus.Subscribe("daemon-log", events); err != nil {
		log.Error("event subscription failed", "error", err)
		return
	}
	for event := range events {
		log.Info("gesture event",
			"slot", event.Slot,
			"tracking_id", event.TrackingID,
			"kind", event.Kind,
			"confidence", event.Confidence,
			"seq", event.Seq,
		)
	}
}

func statsDocument(
	provider sensorcapture.FrameProvider,
	feed pixelfeed.Feed,
	bus eventfeed.Bus,
	track *trackState,
	caster *netcast.Caster,
) any {
	track.mu.Lock()
	trackStats := track.manager.Stats()
	track.mu.Unlock()

	doc := map[string]any{
		"capture": provider.Stats(),
		"feed":    feed.Stats(),
		"events":  bus.Stats(),
		"track":   trackStats,
	}
	if caster != nil {
		doc["cast"] = caster.Stats()
	}
	return doc
}

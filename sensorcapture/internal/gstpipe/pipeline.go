// Package gstpipe builds and manages the GStreamer replay pipeline that
// normalizes recorded sensor captures to 16-bit grayscale sample frames.
package gstpipe

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// TestSourceURI selects a synthetic GStreamer test source instead of a
// recorded capture file.
const TestSourceURI = "test"

// PipelineConfig contains configuration for replay pipeline creation.
type PipelineConfig struct {
	// SourceURI is a capture file path, or TestSourceURI for videotestsrc.
	SourceURI string
	Width     int
	Height    int
	TargetFPS float64
}

// PipelineElements holds references to pipeline elements needed for
// hot-reload and cleanup.
type PipelineElements struct {
	Pipeline   *gst.Pipeline
	AppSink    *app.Sink
	VideoRate  *gst.Element
	CapsFilter *gst.Element
	Source     *gst.Element

	// Convert is the element dynamic source pads must link to (decodebin
	// pads appear only once the stream is inspected).
	Convert *gst.Element

	// Decoded is true when the source goes through decodebin (file replay);
	// false for the synthetic test source, which links statically.
	Decoded bool
}

// CreateReplayPipeline creates and configures the replay pipeline.
//
// Pipeline structure (file replay):
//
//	filesrc -> decodebin -> videoconvert -> videoscale ->
//	videorate -> capsfilter(GRAY16_LE) -> appsink
//
// The GRAY16_LE capsfilter is the normalization step: whatever the capture
// was encoded as, the appsink receives little-endian 16-bit samples at the
// sensor geometry, byte-compatible with the hardware stream.
//
// The pipeline is configured but NOT started (state stays NULL). The caller
// sets appsink callbacks, then moves the pipeline to PLAYING.
func CreateReplayPipeline(cfg PipelineConfig) (*PipelineElements, error) {
	// Safe to call multiple times.
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	var source, decode *gst.Element
	decoded := cfg.SourceURI != TestSourceURI

	if decoded {
		source, err = gst.NewElement("filesrc")
		if err != nil {
			return nil, fmt.Errorf("failed to create filesrc: %w", err)
		}
		source.SetProperty("location", cfg.SourceURI)

		decode, err = gst.NewElement("decodebin")
		if err != nil {
			return nil, fmt.Errorf("failed to create decodebin: %w", err)
		}
	} else {
		source, err = gst.NewElement("videotestsrc")
		if err != nil {
			return nil, fmt.Errorf("failed to create videotestsrc: %w", err)
		}
		// Live mode paces the test source at the caps framerate instead of
		// generating frames as fast as possible.
		source.SetProperty("is-live", true)
		source.SetProperty("pattern", 18) // moving ball; gives depth-like motion
	}

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	scale, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)
	videorate.SetProperty("skip-to-first", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(
		buildGrayCaps(cfg.Width, cfg.Height, cfg.TargetFPS)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	// Replay honors source timing; latest-wins at the sink.
	appsink.SetProperty("sync", true)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	if decoded {
		pipeline.AddMany(source, decode, convert, scale, videorate, capsfilter, appsink.Element)

		if err := source.Link(decode); err != nil {
			return nil, fmt.Errorf("failed to link filesrc to decodebin: %w", err)
		}
		// decodebin output pads are dynamic; the caller connects pad-added
		// and links them to Convert.
		if err := gst.ElementLinkMany(convert, scale, videorate, capsfilter, appsink.Element); err != nil {
			return nil, fmt.Errorf("failed to link replay pipeline elements: %w", err)
		}
	} else {
		pipeline.AddMany(source, convert, scale, videorate, capsfilter, appsink.Element)

		if err := gst.ElementLinkMany(source, convert, scale, videorate, capsfilter, appsink.Element); err != nil {
			return nil, fmt.Errorf("failed to link test pipeline elements: %w", err)
		}
	}

	slog.Debug("gstpipe: replay pipeline created",
		"source", cfg.SourceURI,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"target_fps", cfg.TargetFPS,
	)

	return &PipelineElements{
		Pipeline:   pipeline,
		AppSink:    appsink,
		VideoRate:  videorate,
		CapsFilter: capsfilter,
		Source:     source,
		Convert:    convert,
		Decoded:    decoded,
	}, nil
}

// UpdateFramerateCaps updates the capsfilter framerate dynamically
// (hot-reload). Causes a short interruption while caps renegotiate.
func UpdateFramerateCaps(capsfilter *gst.Element, fps float64, width, height int) error {
	if capsfilter == nil {
		return fmt.Errorf("capsfilter is nil")
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(buildGrayCaps(width, height, fps)))
	return nil
}

// DestroyPipeline sets the pipeline to NULL state and releases resources.
// Safe to call on an already-destroyed pipeline.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// RestartFromEOS seeks a replay pipeline back to its start so the capture
// loops. Only meaningful for decoded (file) sources.
func RestartFromEOS(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return fmt.Errorf("pipeline not initialized")
	}
	if ok := elements.Pipeline.SeekSimple(gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit, 0); !ok {
		return fmt.Errorf("failed to seek pipeline to start")
	}
	return nil
}

// buildGrayCaps builds the GRAY16_LE caps string with a framerate fraction.
func buildGrayCaps(width, height int, fps float64) string {
	numerator := 1
	denominator := 1

	if fps < 1.0 {
		// Fractional FPS: 0.5 Hz -> framerate=1/2
		denominator = int(1.0 / fps)
	} else {
		// Integer FPS: 30.0 Hz -> framerate=30/1
		numerator = int(fps)
	}

	return fmt.Sprintf(
		"video/x-raw,format=GRAY16_LE,width=%d,height=%d,framerate=%d/%d",
		width, height, numerator, denominator,
	)
}

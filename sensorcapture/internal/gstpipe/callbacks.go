package gstpipe

import (
	"encoding/binary"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is a minimal frame struct for internal use (avoids import cycle).
// The public Frame type is defined in the parent package.
type Frame struct {
	Samples   []uint16
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
	TraceID   string
}

// CallbackContext holds state needed by GStreamer callbacks.
type CallbackContext struct {
	FrameChan     chan<- Frame
	FrameCounter  *uint64 // atomic sequence counter
	BytesRead     *uint64 // atomic bytes counter
	FramesDropped *uint64 // atomic drop counter (channel full)
	Width         int
	Height        int
}

// OnNewSample is called by GStreamer when a new frame is available.
//
// The GRAY16_LE buffer is decoded into a fresh []uint16 before the buffer
// is unmapped: GStreamer reuses the backing memory, so the samples must be
// copied out inside the callback. Delivery to the channel is non-blocking;
// a full channel drops the frame.
func OnNewSample(sink *app.Sink, ctx *CallbackContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		// A single corrupted frame should not kill the pipeline.
		slog.Warn("gstpipe: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gstpipe: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()

	expected := ctx.Width * ctx.Height * 2
	if len(data) < expected {
		buffer.Unmap()
		slog.Warn("gstpipe: short buffer received",
			"got_bytes", len(data),
			"expected_bytes", expected,
		)
		return gst.FlowOK
	}

	// Copy out: decode GRAY16_LE bytes into samples the pipeline owns.
	samples := make([]uint16, ctx.Width*ctx.Height)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	buffer.Unmap()

	seq := atomic.AddUint64(ctx.FrameCounter, 1)
	atomic.AddUint64(ctx.BytesRead, uint64(expected))

	frame := Frame{
		Samples:   samples,
		Width:     ctx.Width,
		Height:    ctx.Height,
		Seq:       seq,
		Timestamp: time.Now(),
		TraceID:   uuid.New().String(),
	}

	select {
	case ctx.FrameChan <- frame:
	default:
		atomic.AddUint64(ctx.FramesDropped, 1)
		slog.Debug("gstpipe: dropping frame, channel full",
			"seq", frame.Seq,
			"trace_id", frame.TraceID,
		)
	}

	return gst.FlowOK
}

// OnPadAdded links decodebin's dynamic output pad to the videoconvert sink.
// decodebin pads only exist once the container has been inspected, so the
// link happens from this signal rather than at pipeline construction.
func OnPadAdded(srcElement *gst.Element, srcPad *gst.Pad, sinkElement *gst.Element) {
	slog.Debug("gstpipe: pad-added signal received", "pad", srcPad.GetName())

	sinkPad := sinkElement.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("gstpipe: failed to get sink pad from videoconvert")
		return
	}
	if sinkPad.IsLinked() {
		// decodebin can expose audio pads too; only the first video pad links.
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		slog.Error("gstpipe: failed to link pads",
			"src_pad", srcPad.GetName(),
			"ret", ret,
		)
	}
}

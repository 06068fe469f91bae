package internal

import (
	"errors"
	"time"
)

// Internal errors - mapped to public errors in pixelpipe package
var (
	ErrDimensionMismatch = errors.New("pixelpipe: frame geometry does not match converter buffers")
)

// RawFrame is one hardware-delivered grid of 16-bit samples for a single
// time instant.
//
// IMMUTABILITY CONTRACT:
//   - Samples is a copy owned by the frame; the sensor handle's backing
//     memory is only valid for the duration of the frame callback, so the
//     acquisition layer copies out before releasing the handle.
//   - Consumers MUST NOT modify Samples (read-only access).
//
// Invariant: len(Samples) == Width*Height for the lifetime of the stream.
// Validate() checks it; the Converter re-checks against its own geometry
// before writing a single pixel.
type RawFrame struct {
	// Samples contains the raw sensor values, row-major.
	// Infrared streams: photon counts. Depth streams: millimeters.
	Samples []uint16

	// Width of the frame in pixels
	Width int

	// Height of the frame in pixels
	Height int

	// Seq is a monotonic sequence number assigned by the acquisition layer.
	Seq uint64

	// Timestamp is when the frame was captured (source time, not processing time).
	Timestamp time.Time

	// TraceID is a unique identifier for tracing a frame through the pipeline.
	TraceID string
}

// Validate reports whether the frame satisfies its geometry invariant.
func (f *RawFrame) Validate() error {
	if f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Samples) != f.Width*f.Height {
		return ErrDimensionMismatch
	}
	return nil
}

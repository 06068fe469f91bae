package pixelpipe

import (
	"github.com/e7canasta/kinect-sense/pixelpipe/internal"
)

// Public API - Re-export internal types as stable contract

// RawFrame is re-exported from the internal package to avoid import cycles.
// See internal/frame.go for full documentation.
type RawFrame = internal.RawFrame

// Mapper converts one raw 16-bit sensor sample into an intensity byte.
type Mapper = internal.Mapper

// InfraredCalibration holds the infrared transfer curve constants.
type InfraredCalibration = internal.InfraredCalibration

// InfraredMapper maps infrared photon counts to display intensity.
type InfraredMapper = internal.InfraredMapper

// DepthMapper maps depth-in-millimeters samples to display intensity.
type DepthMapper = internal.DepthMapper

// Converter drives a Mapper over whole frames, producing RGBA buffers.
type Converter = internal.Converter

// ErrDimensionMismatch reports a frame whose geometry disagrees with the
// converter's allocated buffers. The frame is dropped whole; the previous
// pixel buffer stays intact.
var ErrDimensionMismatch = internal.ErrDimensionMismatch

// DefaultInfraredCalibration returns the stock infrared transfer curve.
func DefaultInfraredCalibration() InfraredCalibration {
	return internal.DefaultInfraredCalibration()
}

// NewInfraredMapper creates an infrared mapper; zero-value calibration
// fields fall back to the defaults.
func NewInfraredMapper(cal InfraredCalibration) *InfraredMapper {
	return internal.NewInfraredMapper(cal)
}

// NewDepthMapper creates a depth mapper with the given reliable range.
// A zero maxReliable means "no practical cap" (65535).
func NewDepthMapper(minReliable, maxReliable uint16) *DepthMapper {
	return internal.NewDepthMapper(minReliable, maxReliable)
}

// NewConverter allocates a converter for a fixed frame geometry.
func NewConverter(width, height int, mapper Mapper) (*Converter, error) {
	return internal.NewConverter(width, height, mapper)
}

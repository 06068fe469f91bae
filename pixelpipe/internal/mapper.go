package internal

import "math"

// Mapper converts one raw 16-bit sensor sample into a grayscale intensity byte.
//
// Contract:
//   - Pure and deterministic: same sample, same byte
//   - O(1), no allocation (called once per pixel on the hot path)
type Mapper interface {
	MapSample(s uint16) uint8
}

// InfraredCalibration holds the constants of the infrared intensity transfer
// curve. The defaults reproduce the sensor vendor's recommended values.
type InfraredCalibration struct {
	// SourceMax is the maximum value the infrared sample can produce.
	SourceMax float64

	// SceneAverage is the average infrared intensity a scene is expected to
	// return, as a fraction of SourceMax.
	SceneAverage float64

	// SceneStdDev is the number of standard deviations of spread to allow
	// around SceneAverage before the output saturates.
	SceneStdDev float64

	// OutputMin is the lower clamp of the normalized output, keeping fully
	// dark pixels slightly above black so the image reads as "lit".
	OutputMin float64

	// OutputMax is the upper clamp of the normalized output.
	OutputMax float64
}

// DefaultInfraredCalibration returns the stock infrared transfer curve:
// full 16-bit source range, 8% scene average, 3 standard deviations,
// output clamped to [0.01, 1.0].
func DefaultInfraredCalibration() InfraredCalibration {
	return InfraredCalibration{
		SourceMax:    65535,
		SceneAverage: 0.08,
		SceneStdDev:  3.0,
		OutputMin:    0.01,
		OutputMax:    1.0,
	}
}

// InfraredMapper maps infrared photon counts to display intensity.
//
// Transfer curve:
//
//	ratio = s / SourceMax
//	ratio = ratio / (SceneAverage * SceneStdDev)
//	ratio = clamp(ratio, OutputMin, OutputMax)
//	byte  = round(ratio * 255)
//
// Output is bounded to [round(OutputMin*255), 255] ([3, 255] with defaults).
type InfraredMapper struct {
	cal InfraredCalibration
}

// NewInfraredMapper creates a mapper with the given calibration.
// Zero-value calibration fields fall back to the defaults.
func NewInfraredMapper(cal InfraredCalibration) *InfraredMapper {
	def := DefaultInfraredCalibration()
	if cal.SourceMax <= 0 {
		cal.SourceMax = def.SourceMax
	}
	if cal.SceneAverage <= 0 {
		cal.SceneAverage = def.SceneAverage
	}
	if cal.SceneStdDev <= 0 {
		cal.SceneStdDev = def.SceneStdDev
	}
	if cal.OutputMin <= 0 {
		cal.OutputMin = def.OutputMin
	}
	if cal.OutputMax <= 0 {
		cal.OutputMax = def.OutputMax
	}
	return &InfraredMapper{cal: cal}
}

// MapSample implements Mapper for infrared samples.
func (m *InfraredMapper) MapSample(s uint16) uint8 {
	ratio := float64(s) / m.cal.SourceMax
	ratio /= m.cal.SceneAverage * m.cal.SceneStdDev

	if ratio < m.cal.OutputMin {
		ratio = m.cal.OutputMin
	}
	if ratio > m.cal.OutputMax {
		ratio = m.cal.OutputMax
	}

	return uint8(math.Round(ratio * 255))
}

// depthPerByte collapses the sensor's practical depth range onto one byte:
// 8000mm / 256 levels = 31mm per intensity step.
const depthPerByte = 8000 / 256

// DepthMapper maps depth-in-millimeters samples to display intensity.
//
// A sample inside the reliable range maps to floor(depth/31); everything
// outside the range - including the "no return" sentinel of 0 - maps to 0
// (black). The suppression to black is intentional sentinel policy, not
// clamping: unreliable pixels must not render as a plausible near distance.
//
// The reliable minimum is sensor-reported and varies per frame; the caller
// refreshes it via SetReliableRange between frames. The maximum defaults to
// the full 16-bit range; substitute the sensor-reported maximum for a
// stricter cutoff.
//
// Not safe for concurrent use: the mapper belongs to a single stream
// callback, which is single-flight by construction.
type DepthMapper struct {
	minReliable uint16
	maxReliable uint16
}

// NewDepthMapper creates a depth mapper with the given reliable range.
// A zero maxReliable means "no practical cap" (65535).
func NewDepthMapper(minReliable, maxReliable uint16) *DepthMapper {
	if maxReliable == 0 {
		maxReliable = math.MaxUint16
	}
	return &DepthMapper{
		minReliable: minReliable,
		maxReliable: maxReliable,
	}
}

// SetReliableRange updates the reliable depth window for the next frame.
// A zero max means "no practical cap" (65535).
func (m *DepthMapper) SetReliableRange(min, max uint16) {
	if max == 0 {
		max = math.MaxUint16
	}
	m.minReliable = min
	m.maxReliable = max
}

// ReliableRange returns the current reliable depth window.
func (m *DepthMapper) ReliableRange() (min, max uint16) {
	return m.minReliable, m.maxReliable
}

// MapSample implements Mapper for depth samples.
func (m *DepthMapper) MapSample(d uint16) uint8 {
	if d < m.minReliable || d > m.maxReliable {
		return 0
	}
	// Depths past ~8m wrap modulo 256; the sensor's usable range ends well
	// before that, and the reliable maximum is expected to cut them off.
	return uint8(d / depthPerByte)
}

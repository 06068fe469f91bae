package sensorcapture

import "time"

// StreamKind identifies which sensor stream a provider delivers.
type StreamKind int

const (
	// KindInfrared delivers infrared photon-count samples.
	KindInfrared StreamKind = iota
	// KindDepth delivers depth-in-millimeters samples.
	KindDepth
)

// String returns a human-readable name for the stream kind.
func (k StreamKind) String() string {
	switch k {
	case KindInfrared:
		return "infrared"
	case KindDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// Default sensor geometry: the depth/infrared camera delivers 512x424.
const (
	DefaultWidth  = 512
	DefaultHeight = 424
)

// DepthRange is the sensor-asserted [Min, Max] window in millimeters within
// which a depth sample is trustworthy. The minimum varies per frame.
type DepthRange struct {
	Min uint16
	Max uint16
}

// Frame is one acquired sensor frame.
//
// Samples is a copy: the provider copies data out of the acquisition
// buffer before releasing it, so the frame stays valid for as long as a
// consumer holds it. Consumers must treat Samples as read-only.
type Frame struct {
	// Samples contains the raw 16-bit sensor values, row-major.
	Samples []uint16
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Kind identifies the stream that produced the frame.
	Kind StreamKind
	// DepthRange is the sensor-reported reliable window for this frame.
	// Meaningful for depth streams only.
	DepthRange DepthRange
	// Seq is the monotonic acquisition sequence number.
	Seq uint64
	// Timestamp is when the frame was captured/decoded.
	Timestamp time.Time
	// TraceID is a unique identifier for tracing the frame through the pipeline.
	TraceID string
}

// BodyFrame is one acquired body-tracking frame: the tracking identifiers
// of up to N simultaneously tracked subjects, in stable slot order. A zero
// identifier means the slot is unoccupied this frame.
type BodyFrame struct {
	// TrackingIDs holds one identifier per sensor body slot.
	TrackingIDs []uint64
	// Seq is the monotonic acquisition sequence number.
	Seq uint64
	// Timestamp is when the frame was captured.
	Timestamp time.Time
}

// StreamStats contains current provider statistics.
type StreamStats struct {
	// FrameCount is the total number of frames delivered
	FrameCount uint64
	// FramesDropped is the total number of frames dropped (channel full)
	FramesDropped uint64
	// DropRate is the percentage of frames dropped (0-100)
	DropRate float64
	// FPSTarget is the configured target FPS
	FPSTarget float64
	// FPSReal is the measured real FPS since Start
	FPSReal float64
	// LatencyMS is the time since the last frame in milliseconds
	LatencyMS int64
	// Resolution is the frame resolution (e.g. "512x424")
	Resolution string
	// Kind identifies the stream
	Kind StreamKind
	// Loops counts end-of-stream restarts (replay provider only)
	Loops uint32
	// BytesRead is the total raw bytes pulled from the source
	BytesRead uint64
	// IsRunning indicates whether the provider is currently delivering
	IsRunning bool
}

// WarmupStats contains statistics collected during the warm-up phase.
type WarmupStats struct {
	// FramesReceived is the number of frames received during warm-up
	FramesReceived int
	// Duration is the actual warm-up duration
	Duration time.Duration
	// FPSMean is the mean FPS across all frames
	FPSMean float64
	// FPSStdDev is the standard deviation of instantaneous FPS
	FPSStdDev float64
	// FPSMin is the minimum instantaneous FPS
	FPSMin float64
	// FPSMax is the maximum instantaneous FPS
	FPSMax float64
	// JitterMean is the mean deviation of inter-frame intervals in seconds
	JitterMean float64
	// IsStable is true if FPS is stable (stddev < 15% of mean and
	// jitter < 20% of the expected interval)
	IsStable bool
}

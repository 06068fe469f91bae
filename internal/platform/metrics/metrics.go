package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the sensor daemon.
type Metrics struct {
	registry             *prometheus.Registry
	framesConvertedTotal *prometheus.CounterVec
	framesDroppedTotal   *prometheus.CounterVec
	conversionDuration   prometheus.Histogram
	rebindsTotal         prometheus.Counter
	capacityErrorsTotal  prometheus.Counter
	masksBroadcastTotal  prometheus.Counter
	activeSubjects       prometheus.Gauge
	captureFPS           *prometheus.GaugeVec
	errorsTotal          prometheus.Counter
}

// New creates and registers Prometheus metrics for the sensor daemon.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	framesConvertedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kinect_frames_converted_total",
		Help: "Total number of sensor frames converted to pixels",
	}, []string{"kind"})
	framesDroppedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kinect_frames_dropped_total",
		Help: "Total number of sensor frames dropped before conversion",
	}, []string{"kind"})
	conversionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kinect_conversion_duration_seconds",
		Help:    "Time spent converting one frame to pixels",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
	rebindsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kinect_detector_rebinds_total",
		Help: "Total number of detector slot rebinds caused by identity changes",
	})
	capacityErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kinect_capacity_errors_total",
		Help: "Total number of body frames carrying more subjects than slots",
	})
	masksBroadcastTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kinect_masks_broadcast_total",
		Help: "Total number of presence masks broadcast over the network",
	})
	activeSubjects := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kinect_active_subjects",
		Help: "Number of detector slots currently bound to a tracked subject",
	})
	captureFPS := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kinect_capture_fps",
		Help: "Measured capture frame rate per stream",
	}, []string{"kind"})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kinect_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		framesConvertedTotal,
		framesDroppedTotal,
		conversionDuration,
		rebindsTotal,
		capacityErrorsTotal,
		masksBroadcastTotal,
		activeSubjects,
		captureFPS,
		errorsTotal,
	)

	return &Metrics{
		registry:             registry,
		framesConvertedTotal: framesConvertedTotal,
		framesDroppedTotal:   framesDroppedTotal,
		conversionDuration:   conversionDuration,
		rebindsTotal:         rebindsTotal,
		capacityErrorsTotal:  capacityErrorsTotal,
		masksBroadcastTotal:  masksBroadcastTotal,
		activeSubjects:       activeSubjects,
		captureFPS:           captureFPS,
		errorsTotal:          errorsTotal,
	}
}

// IncFramesConverted increments the converted-frame counter for a stream kind.
func (m *Metrics) IncFramesConverted(kind string) {
	m.framesConvertedTotal.WithLabelValues(kind).Inc()
}

// IncFramesDropped increments the dropped-frame counter for a stream kind.
func (m *Metrics) IncFramesDropped(kind string) {
	m.framesDroppedTotal.WithLabelValues(kind).Inc()
}

// ObserveConversion records how long one frame conversion took.
func (m *Metrics) ObserveConversion(d time.Duration) {
	m.conversionDuration.Observe(d.Seconds())
}

// IncRebinds increments the detector rebind counter.
func (m *Metrics) IncRebinds() {
	m.rebindsTotal.Inc()
}

// IncCapacityErrors increments the over-capacity body frame counter.
func (m *Metrics) IncCapacityErrors() {
	m.capacityErrorsTotal.Inc()
}

// IncMasksBroadcast increments the broadcast mask counter.
func (m *Metrics) IncMasksBroadcast() {
	m.masksBroadcastTotal.Inc()
}

// SetActiveSubjects sets the bound-slot gauge.
func (m *Metrics) SetActiveSubjects(n int) {
	m.activeSubjects.Set(float64(n))
}

// SetCaptureFPS sets the measured frame rate gauge for a stream kind.
func (m *Metrics) SetCaptureFPS(kind string, fps float64) {
	m.captureFPS.WithLabelValues(kind).Set(fps)
}

// IncErrors increments the HTTP error counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// Package httpapi exposes the sensor daemon's observation surface: health,
// Prometheus metrics, a JSON stats snapshot and a PNG preview of the latest
// converted frame.
package httpapi

import (
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/image/draw"

	"github.com/e7canasta/kinect-sense/internal/platform/logger"
	"github.com/e7canasta/kinect-sense/internal/platform/metrics"
)

const (
	defaultPreviewWidth = 256
	minPreviewWidth     = 16
)

// PreviewSource supplies the latest converted frame for the preview
// endpoint. ok is false while no frame has been converted yet.
type PreviewSource interface {
	LatestPixels() (pix []byte, width, height int, ok bool)
}

// Handler exposes the daemon's HTTP endpoints using go-chi.
type Handler struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	stats   func() any
	preview PreviewSource
}

// NewHandler returns a Handler. stats produces the /v1/stats document on
// each request; preview may be nil to disable the preview endpoint.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(log *slog.Logger, m *metrics.Metrics, stats func() any, preview PreviewSource) *Handler {
	return &Handler{log: log, metrics: m, stats: stats, preview: preview}
}

// Router assembles the chi router. updateGauges is called before each
// metrics scrape to refresh gauge values.
func (h *Handler) Router(updateGauges func()) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(h.log))
	if h.metrics != nil {
		r.Use(metrics.RequestMiddleware(h.metrics))
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			h.metrics.Handler(updateGauges).ServeHTTP(w, req)
		})
	}
	r.Get("/healthz", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/preview.png", h.Preview)
	})
	return r
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.stats()); err != nil {
		h.log.Error("stats encoding failed", slog.String("error", err.Error()))
	}
}

// Preview handles GET /v1/preview.png. The optional "w" query parameter
// sets the output width; height follows the source aspect ratio.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.preview == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	pix, width, height, ok := h.preview.LatestPixels()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	outWidth := defaultPreviewWidth
	if s := r.URL.Query().Get("w"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < minPreviewWidth || n > width {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		outWidth = n
	}
	if outWidth > width {
		outWidth = width
	}
	outHeight := height * outWidth / width

	src := &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(image.Rect(0, 0, outWidth, outHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, dst); err != nil {
		h.log.Error("preview encoding failed", slog.String("error", err.Error()))
	}
}

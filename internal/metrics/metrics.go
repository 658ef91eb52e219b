// Package metrics exposes Prometheus collectors for the render loop and the
// video pipeline. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	loopFrames      *prometheus.CounterVec
	loopState       prometheus.Gauge
	transientStreak prometheus.Gauge
	renderSeconds   prometheus.Histogram
	presentSeconds  prometheus.Histogram

	videoFrames   *prometheus.CounterVec
	videoInFlight prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		loopFrames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aclock_loop_frames_total",
			Help: "Frames presented by the render loop, by outcome.",
		}, []string{"result"}),
		loopState: f.NewGauge(prometheus.GaugeOpts{
			Name: "aclock_loop_state",
			Help: "Render loop state: 0 idle, 1 rendering, 2 presenting, 3 shutting down.",
		}),
		transientStreak: f.NewGauge(prometheus.GaugeOpts{
			Name: "aclock_loop_transient_streak",
			Help: "Consecutive transient device errors.",
		}),
		renderSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aclock_render_seconds",
			Help:    "Time to render one canvas.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		presentSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aclock_present_seconds",
			Help:    "Time to present one canvas.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		videoFrames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aclock_video_frames_total",
			Help: "Video frames by outcome.",
		}, []string{"result"}),
		videoInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "aclock_video_inflight_frames",
			Help: "Frames dispatched but not yet muxed.",
		}),
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aclock_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "code"}),
		httpDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aclock_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) LoopFrame(result string) {
	if m == nil {
		return
	}
	m.loopFrames.WithLabelValues(result).Inc()
}

func (m *Metrics) LoopState(s int) {
	if m == nil {
		return
	}
	m.loopState.Set(float64(s))
}

func (m *Metrics) TransientStreak(n int) {
	if m == nil {
		return
	}
	m.transientStreak.Set(float64(n))
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObservePresent(d time.Duration) {
	if m == nil {
		return
	}
	m.presentSeconds.Observe(d.Seconds())
}

func (m *Metrics) VideoFrame(result string) {
	if m == nil {
		return
	}
	m.videoFrames.WithLabelValues(result).Inc()
}

func (m *Metrics) VideoInFlight(n int) {
	if m == nil {
		return
	}
	m.videoInFlight.Set(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		m.httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Package metrics provides Prometheus instrumentation for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RendersTotal counts dashboard render passes by view.
	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamdash",
			Name:      "renders_total",
			Help:      "Total dashboard render passes by view.",
		},
		[]string{"view"},
	)

	// RenderDuration observes how long a render pass takes by view.
	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scamdash",
			Name:      "render_duration_seconds",
			Help:      "Dashboard render pass duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"view"},
	)

	// RecordsLoaded is the number of clean records in memory.
	RecordsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scamdash", Name: "records_loaded",
		Help: "Number of dataset records loaded at startup.",
	})
	// RecordsSkipped is the number of rows excluded by the skip policy.
	RecordsSkipped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scamdash", Name: "records_skipped",
		Help: "Number of dataset rows skipped during load.",
	})

	// DrilldownTogglesTotal counts drill-down visibility toggles.
	DrilldownTogglesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scamdash",
		Name:      "drilldown_toggles_total",
		Help:      "Total drill-down toggle requests.",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamdash",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status class.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RendersTotal,
		RenderDuration,
		RecordsLoaded,
		RecordsSkipped,
		DrilldownTogglesTotal,
		HTTPRequestsTotal,
	)
}

// ObserveRender counts a render of view and returns a func that records its duration
func ObserveRender(view string) func() {
	start := time.Now()
	RendersTotal.WithLabelValues(view).Inc()
	return func() {
		RenderDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}

// SetLoadStats publishes the dataset load counters
func SetLoadStats(rows, skipped int) {
	RecordsLoaded.Set(float64(rows))
	RecordsSkipped.Set(float64(skipped))
}

// Middleware records request counts keyed by the chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, statusClass(ww.Status())).Inc()
	})
}

// Handler returns the Prometheus exposition handler for /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusClass groups status codes into 2xx, 3xx, 4xx and 5xx
func statusClass(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}

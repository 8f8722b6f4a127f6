package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wlt",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wlt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	authLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)

	usersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "users",
			Name:      "registered_total",
			Help:      "Total number of registered users.",
		},
	)

	micrositesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "microsites",
			Name:      "created_total",
			Help:      "Total number of created microsites.",
		},
	)

	mediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Media uploads by backend and result.",
		},
		[]string{"backend", "result"},
	)

	mediaUploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wlt",
			Subsystem: "media",
			Name:      "upload_duration_seconds",
			Help:      "Duration of media uploads.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"backend"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wlt",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		authLogins,
		usersRegistered,
		micrositesCreated,
		mediaUploads,
		mediaUploadDuration,
		cacheRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// When used as router middleware the path label is the matched route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := routePath(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLogin records a login attempt. result is success, invalid or inactive.
func RecordLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	authLogins.WithLabelValues(result).Inc()
}

func RecordUserRegistered() {
	usersRegistered.Inc()
}

func RecordMicrositeCreated() {
	micrositesCreated.Inc()
}

// RecordMediaUpload records one upload attempt against a media backend.
func RecordMediaUpload(backend string, duration time.Duration, success bool) {
	if backend == "" {
		backend = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := "error"
	if success {
		result = "success"
	}
	mediaUploads.WithLabelValues(backend, result).Inc()
	mediaUploadDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(result string) {
	cacheRequests.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
			return tpl
		}
	}
	return canonicalPath(r.URL.Path)
}

// canonicalPath collapses unmatched paths to their first two segments so
// arbitrary URLs cannot blow up label cardinality.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) == 1 {
		return "/" + parts[0]
	}
	return "/" + parts[0] + "/" + parts[1]
}

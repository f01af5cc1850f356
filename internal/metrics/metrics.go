package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors served on /metrics.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lantern",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	activitiesLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "activities",
			Name:      "logged_total",
			Help:      "Activities logged, by type.",
		},
		[]string{"type"},
	)

	pointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "activities",
			Name:      "points_awarded_total",
			Help:      "Points awarded at activity creation, by type.",
		},
		[]string{"type"},
	)

	friendTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "friends",
			Name:      "transitions_total",
			Help:      "Friend request transitions, by kind.",
		},
		[]string{"transition"},
	)

	notificationsRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "notifications",
			Name:      "marked_read_total",
			Help:      "Notifications flipped to read.",
		},
	)

	storiesPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lantern",
			Subsystem: "stories",
			Name:      "purged_total",
			Help:      "Expired stories deleted by the purge job.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		activitiesLogged,
		pointsAwarded,
		friendTransitions,
		notificationsRead,
		storiesPurged,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP records request counts and latencies labelled by chi route pattern.
func InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordActivity(activityType string, points int) {
	activitiesLogged.WithLabelValues(activityType).Inc()
	pointsAwarded.WithLabelValues(activityType).Add(float64(points))
}

func RecordTransition(transition string) {
	friendTransitions.WithLabelValues(transition).Inc()
}

func RecordMarkedRead(n int64) {
	notificationsRead.Add(float64(n))
}

func RecordStoriesPurged(n int64) {
	storiesPurged.Add(float64(n))
}

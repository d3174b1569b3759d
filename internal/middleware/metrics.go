package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitchat_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitchat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// SessionsCreated counts receipts successfully ingested into sessions.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitchat_sessions_created_total",
		Help: "Sessions created from successfully extracted receipts.",
	})

	// CommandsApplied counts chat commands successfully applied to a bill.
	CommandsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitchat_commands_applied_total",
		Help: "Chat commands successfully applied.",
	})

	// CollaboratorFailures counts failures of the external AI services.
	CollaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitchat_collaborator_failures_total",
		Help: "External collaborator failures by kind.",
	}, []string{"kind"})
)

// Metrics records a request counter and latency histogram per route. The
// route label is the mux route template, not the raw path, to keep
// cardinality bounded.
func Metrics(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

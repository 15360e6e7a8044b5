package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// MatchQueries counts rule-set queries by backend and outcome.
	MatchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_queries_total",
			Help: "Total rule-set queries",
		},
		[]string{"backend", "outcome"},
	)
	// MatchDuration observes query latency per backend. Queries run in
	// microseconds, hence the sub-default buckets.
	MatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_query_duration_seconds",
			Help:    "Rule-set query duration in seconds",
			Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2},
		},
		[]string{"backend"},
	)
	// SnapshotRules tracks the size of the serving rule set.
	SnapshotRules = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_rules",
		Help: "Number of rules in the serving snapshot",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, MatchQueries, MatchDuration, SnapshotRules)
}

// ObserveQuery records one query against the serving rule set.
func ObserveQuery(backend string, matched int, elapsed time.Duration) {
	outcome := "matched"
	if matched == 0 {
		outcome = "none"
	}
	MatchQueries.WithLabelValues(backend, outcome).Inc()
	MatchDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// StartServer serves /metrics on its own listener.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// The route pattern is only known once the router has dispatched.
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requestDuration *prometheus.HistogramVec
	analysisRuns    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streetlab",
			Name:      "http_request_duration_seconds",
			Help:      "duration of http requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"path", "method", "status"}),
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streetlab",
			Name:      "analysis_runs_total",
			Help:      "number of analysis runs by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requestDuration, m.analysisRuns)
	return m
}

func (m *Metrics) CountAnalysis(kind string) {
	if m == nil {
		return
	}
	m.analysisRuns.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// PromeHTTPMiddleware records request duration per route pattern.
func PromeHTTPMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = r.URL.Path
			}
			m.requestDuration.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolverAttempts counts solver invocations by grid-search phase and outcome.
	SolverAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_attempts_total", Help: "Solver invocations by phase and outcome."},
		[]string{"phase", "outcome"},
	)
	// SolveDuration records wall-clock solve durations in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120}},
		[]string{"phase"},
	)

	// CartographyRequests counts provider calls by provider, endpoint, and status.
	CartographyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cartography_requests_total", Help: "Cartography provider calls by endpoint and status."},
		[]string{"provider", "endpoint", "status"},
	)
)

var regOnce sync.Once

// Register attaches all collectors to the service registry.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolverAttempts)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(CartographyRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	pricingTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	simulatedPaths prometheus.Counter
	simulatedSteps prometheus.Counter
}

// New registers the recorder on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		pricingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionlab_pricing_requests_total",
				Help: "Pricing requests by model and query",
			},
			[]string{"model", "query"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionlab_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optionlab_operation_duration_seconds",
				Help:    "Duration of pricing operations in seconds",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		simulatedPaths: factory.NewCounter(prometheus.CounterOpts{
			Name: "optionlab_simulated_paths_total",
			Help: "Number of Monte Carlo paths generated",
		}),
		simulatedSteps: factory.NewCounter(prometheus.CounterOpts{
			Name: "optionlab_simulated_steps_total",
			Help: "Number of path steps (paths x steps) generated",
		}),
	}
}

func (r *Recorder) RecordPricing(model, query string) {
	r.pricingTotal.WithLabelValues(model, query).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordSimulatedPaths(paths, steps int) {
	r.simulatedPaths.Add(float64(paths))
	r.simulatedSteps.Add(float64(paths) * float64(steps))
}

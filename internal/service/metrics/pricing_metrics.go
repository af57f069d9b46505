package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "optionlab",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of pricing endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "optionlab",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by pricing endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "optionlab",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)

	StreamedPaths = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "optionlab",
			Subsystem: "ws",
			Name:      "streamed_paths_total",
			Help:      "Paths streamed over websocket",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, RateLimited, StreamedPaths)
	})
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector counts the requests seen by the observability middleware.
type MetricsCollector struct {
	AppName         string
	RequestDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	ErrorCounter    *prometheus.CounterVec
	ActiveRequests  prometheus.Gauge
}

// NewMetricsCollector registers the collectors on reg. A nil reg falls back
// to the default prometheus registerer.
func NewMetricsCollector(namespace, appName string, reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		AppName: appName,
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"app", "method", "status"},
		),

		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"app", "method", "status"},
		),

		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of requests whose handler failed",
			},
			[]string{"app", "class", "method"},
		),

		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_requests",
				Help:      "Number of active requests",
				ConstLabels: prometheus.Labels{
					"app": appName,
				},
			},
		),
	}
}

func (m *MetricsCollector) IncActiveRequests() {
	m.ActiveRequests.Inc()
}

func (m *MetricsCollector) DecActiveRequests() {
	m.ActiveRequests.Dec()
}

// ObserveRequest records a request that produced a response.
func (m *MetricsCollector) ObserveRequest(method string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"app":    m.AppName,
		"method": method,
		"status": strconv.Itoa(status),
	}
	m.RequestDuration.With(labels).Observe(duration.Seconds())
	m.RequestCounter.With(labels).Inc()
}

// LogError records a request whose handler failed. class is the Go type of
// the fault, which keeps label cardinality bounded by the code base.
func (m *MetricsCollector) LogError(method, class string) {
	m.ErrorCounter.With(prometheus.Labels{
		"app":    m.AppName,
		"class":  class,
		"method": method,
	}).Inc()
}

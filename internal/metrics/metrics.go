package metrics

import (
	"net/http"
	"time"

	"gopower/domain/power"
	"gopower/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsNamespace           = "gopower"
	MetricsSubsystemSimulation = "simulation"
	MetricsSubsystemAPI        = "api"
)

// Metrics records simulation progress and API timings. It satisfies
// ports.ProgressObserver and is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	repetitionsTotal   *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	repetitionDuration *prometheus.HistogramVec
	estimationsTotal   *prometheus.CounterVec
	lastPower          *prometheus.GaugeVec

	apiTime *prometheus.HistogramVec
}

// New creates a collector set on a private registry
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: MetricsNamespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.repetitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSimulation,
		Name:      "repetitions_total",
		Help:      "Simulated experiments tested.",
	}, []string{"strategy"})
	m.registry.MustRegister(m.repetitionsTotal)

	m.rejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSimulation,
		Name:      "rejections_total",
		Help:      "Simulated experiments whose null hypothesis was rejected.",
	}, []string{"strategy"})
	m.registry.MustRegister(m.rejectionsTotal)

	m.repetitionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSimulation,
		Name:      "repetition_seconds",
		Help:      "Time to generate and test one experiment.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"strategy"})
	m.registry.MustRegister(m.repetitionDuration)

	m.estimationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSimulation,
		Name:      "estimations_total",
		Help:      "Finished estimations by result (complete, partial or the error code).",
	}, []string{"strategy", "result"})
	m.registry.MustRegister(m.estimationsTotal)

	m.lastPower = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSimulation,
		Name:      "last_power",
		Help:      "Power of the most recent estimation.",
	}, []string{"strategy"})
	m.registry.MustRegister(m.lastPower)

	m.apiTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemAPI,
		Name:      "time_seconds",
		Help:      "Time to execute the api handler",
	}, []string{"handler", "method", "status_code"})
	m.registry.MustRegister(m.apiTime)

	return m
}

func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RepetitionCompleted(strategy power.Strategy, outcome power.Outcome, elapsed time.Duration) {
	label := string(strategy)
	m.repetitionsTotal.WithLabelValues(label).Inc()
	if outcome.Rejected {
		m.rejectionsTotal.WithLabelValues(label).Inc()
	}
	m.repetitionDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) EstimationFinished(estimate *power.Estimate, err error) {
	strategy := "unknown"
	if estimate != nil {
		strategy = string(estimate.Strategy)
	}

	switch {
	case estimate == nil:
		m.estimationsTotal.WithLabelValues(strategy, errors.GetCode(err)).Inc()
	case estimate.Partial:
		m.estimationsTotal.WithLabelValues(strategy, "partial").Inc()
	default:
		m.estimationsTotal.WithLabelValues(strategy, "complete").Inc()
	}
	if estimate != nil && estimate.Completed > 0 {
		m.lastPower.WithLabelValues(strategy).Set(estimate.Power)
	}
}

func (m *Metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	m.apiTime.WithLabelValues(handler, method, statusCode).Observe(elapsed)
}

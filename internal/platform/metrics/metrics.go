package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
)

const namespace = "sportscorex"

// Registry owns every collector the service exports on /metrics.
type Registry struct {
	reg *prometheus.Registry

	providerCalls    *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	aggregation      *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	streamSubscriber prometheus.Gauge
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Upstream provider calls by outcome.",
		}, []string{"provider", "operation", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Score cache lookups by result.",
		}, []string{"operation", "result"}),
		aggregation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time to answer one aggregation, cache hits included.",
			Buckets:   []float64{.001, .005, .025, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_circuit_open",
			Help:      "1 while the provider circuit breaker is open or half-open.",
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		streamSubscriber: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_stream_subscribers",
			Help:      "Connected live-score websocket subscribers.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.providerCalls,
		r.cacheLookups,
		r.aggregation,
		r.breakerState,
		r.httpRequests,
		r.httpDuration,
		r.streamSubscriber,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ProviderCall(provider scores.ProviderName, op scores.Operation, outcome string) {
	r.providerCalls.WithLabelValues(string(provider), string(op), outcome).Inc()
}

func (r *Registry) CacheLookup(op scores.Operation, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(string(op), result).Inc()
}

func (r *Registry) Aggregation(op scores.Operation, elapsed time.Duration) {
	r.aggregation.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// BreakerStateChanged matches resilience.StateChangeFunc.
func (r *Registry) BreakerStateChanged(name string, _, to resilience.CircuitState) {
	value := 0.0
	if to != resilience.CircuitStateClosed {
		value = 1
	}
	r.breakerState.WithLabelValues(name).Set(value)
}

func (r *Registry) HTTPRequest(route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (r *Registry) SubscriberConnected() {
	r.streamSubscriber.Inc()
}

func (r *Registry) SubscriberDisconnected() {
	r.streamSubscriber.Dec()
}

// Package metrics exports engine activity to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marko911/tx-lookup/pkg/explorer"
)

// Observer implements engine.Observer with Prometheus collectors.
type Observer struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	waves          *prometheus.CounterVec
	sources        *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
}

func New(namespace string) *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Transaction lookups by outcome.",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "End to end lookup latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		waves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_total",
			Help:      "Explorer waves raced, by position and outcome.",
		}, []string{"wave", "outcome"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_results_total",
			Help:      "Explorer invocations by service and result.",
		}, []string{"service", "result"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_duration_seconds",
			Help:      "Explorer invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}

	o.registry.MustRegister(o.lookups, o.lookupDuration, o.waves, o.sources, o.sourceDuration)
	return o
}

// Handler serves the collected metrics.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observer) WaveStarted(int, int) {}

func (o *Observer) SourceSettled(service string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.sources.WithLabelValues(service, result).Inc()
	o.sourceDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (o *Observer) WaveFinished(wave int, err error) {
	o.waves.WithLabelValues(strconv.Itoa(wave), outcome(err)).Inc()
}

func (o *Observer) LookupFinished(err error, elapsed time.Duration) {
	o.lookups.WithLabelValues(outcome(err)).Inc()
	o.lookupDuration.Observe(elapsed.Seconds())
}

// outcome maps an error onto a small fixed label set.
func outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, explorer.ErrConfiguration):
		return "configuration"
	case errors.Is(err, explorer.ErrUnsupportedChain):
		return "unsupported_chain"
	case errors.Is(err, explorer.ErrConsistency):
		return "inconsistent"
	case errors.Is(err, explorer.ErrNoConfirmation):
		return "unconfirmed"
	default:
		return "failed"
	}
}

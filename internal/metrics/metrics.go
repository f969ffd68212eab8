// Package metrics exposes the evaluation activity of a datum graph as
// Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/datumid"
)

// resultOK labels successful evaluations.
const resultOK = "ok"

// kinds lists the failure kinds in the order they are matched.
var kinds = []error{
	datum.ErrCyclicDependency,
	datum.ErrUnresolvedNode,
	datum.ErrUnresolvedField,
	datum.ErrDivisionByZero,
	datum.ErrParse,
	datum.ErrInvalidAssignment,
	datum.ErrInvalidOperation,
}

// Collector implements datum.Observer and owns the registry it publishes to.
type Collector struct {
	registry     *prometheus.Registry
	evaluations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	invalidation prometheus.Counter
}

// New creates a Collector with a fresh registry that also carries the Go
// runtime collector.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())

	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datum_evaluations_total",
			Help: "Number of datum evaluations by datum kind and result.",
		},
		[]string{"kind", "result"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datum_evaluation_duration_seconds",
			Help:    "Histogram of datum evaluation durations, including upstream evaluations.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"kind"},
	)
	invalidation := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datum_invalidations_total",
			Help: "Number of datums marked stale.",
		},
	)
	registry.MustRegister(evaluations, duration, invalidation)

	return &Collector{
		registry:     registry,
		evaluations:  evaluations,
		duration:     duration,
		invalidation: invalidation,
	}
}

// Evaluated implements datum.Observer.
func (c *Collector) Evaluated(_ datumid.Ref, kind datum.Kind, err error, elapsed time.Duration) {
	c.evaluations.WithLabelValues(kind.String(), Result(err)).Inc()
	c.duration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// Invalidated implements datum.Observer.
func (c *Collector) Invalidated(datumid.Ref) {
	c.invalidation.Inc()
}

// Registry returns the registry the collectors are registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Result names the outcome of an evaluation for the result label.
func Result(err error) string {
	if err == nil {
		return resultOK
	}
	var de *datum.Error
	if errors.As(err, &de) && de.Kind != nil {
		return de.Kind.Error()
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "error"
}

// Package metrics exposes Prometheus collectors for HTTP traffic and
// recipe activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	recipesCreatedTotal  prometheus.Counter
	recipesDeletedTotal  prometheus.Counter
	usersRegisteredTotal prometheus.Counter
	recipeTogglesTotal   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		recipesCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "recipes_created_total",
			Help: "Total number of recipes created",
		}),
		recipesDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "recipes_deleted_total",
			Help: "Total number of recipes deleted",
		}),
		usersRegisteredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of registered users",
		}),
		recipeTogglesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_toggles_total",
				Help: "Save and like toggles by resulting state",
			},
			[]string{"kind", "state"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one completed HTTP request
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// The recording methods below are no-ops on a nil *Metrics.

func (m *Metrics) RecipeCreated() {
	if m != nil {
		m.recipesCreatedTotal.Inc()
	}
}

func (m *Metrics) RecipeDeleted() {
	if m != nil {
		m.recipesDeletedTotal.Inc()
	}
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.usersRegisteredTotal.Inc()
	}
}

// RecipeToggled records a save or like toggle ending in state on/off
func (m *Metrics) RecipeToggled(kind string, on bool) {
	if m == nil {
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	m.recipeTogglesTotal.WithLabelValues(kind, state).Inc()
}

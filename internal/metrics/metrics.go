// Package metrics holds the Prometheus collectors for login and guard outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginError   = "error"
	LoginLimited = "limited"
)

// Guard decisions.
const (
	GuardAuthorized      = "authorized"
	GuardUnauthenticated = "unauthenticated"
	GuardError           = "error"
)

type Metrics struct {
	registry       *prometheus.Registry
	loginAttempts  *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopadmin",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopadmin",
			Name:      "guard_decisions_total",
			Help:      "Session guard decisions on protected admin requests.",
		}, []string{"decision"}),
	}
	m.registry.MustRegister(
		m.loginAttempts,
		m.guardDecisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Guard(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// LoginCounter returns the login counter for result.
func (m *Metrics) LoginCounter(result string) prometheus.Counter {
	return m.loginAttempts.WithLabelValues(result)
}

// GuardCounter returns the guard counter for decision.
func (m *Metrics) GuardCounter(decision string) prometheus.Counter {
	return m.guardDecisions.WithLabelValues(decision)
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

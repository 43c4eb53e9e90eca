// Package metrics exposes session-expiry counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wishplace"

// Logout path labels for ForcedLogouts.
const (
	LogoutPrimary  = "primary"
	LogoutFallback = "fallback"
)

type Metrics struct {
	registry *prometheus.Registry

	// GuardDecisions counts protected-path decisions by outcome: allow or
	// one of the deny reasons.
	GuardDecisions *prometheus.CounterVec
	// ForcedLogouts counts watchdog expiries by the logout path taken.
	ForcedLogouts *prometheus.CounterVec
	// WatchdogPages is the number of pages currently connected to a watchdog.
	WatchdogPages prometheus.Gauge
	// RateLimited counts requests rejected by the auth throttle.
	RateLimited prometheus.Counter
}

// New builds the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Edge guard decisions on protected paths.",
		}, []string{"outcome"}),
		ForcedLogouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchdog",
			Name:      "forced_logouts_total",
			Help:      "Client sessions logged out by the watchdog.",
		}, []string{"path"}),
		WatchdogPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watchdog",
			Name:      "pages",
			Help:      "Pages connected to the watchdog bridge.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the auth rate limiter.",
		}),
	}
	reg.MustRegister(
		m.GuardDecisions,
		m.ForcedLogouts,
		m.WatchdogPages,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
	return mux
}

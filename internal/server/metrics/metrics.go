// Package metrics holds the Prometheus collectors of the auth server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultThrottled = "throttled"
	ResultReuse     = "reuse"
)

type Metrics struct {
	Logins        *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
	Logouts       *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	BlacklistHits prometheus.Counter
	SweptRows     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with a fresh registry
// that also carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors with reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_logins_total",
			Help: "Login attempts by user type and result.",
		}, []string{"user_type", "result"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_refreshes_total",
			Help: "Refresh token rotations by result.",
		}, []string{"result"}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_logouts_total",
			Help: "Logouts by scope.",
		}, []string{"scope"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_registrations_total",
			Help: "Registrations by result.",
		}, []string{"result"}),
		BlacklistHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophauth_blacklist_hits_total",
			Help: "Access tokens rejected because their jti is blacklisted.",
		}),
		SweptRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_swept_rows_total",
			Help: "Expired ledger rows removed by the sweeper.",
		}, []string{"ledger"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gophauth_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gophauth_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: g,
	}

	reg.MustRegister(
		m.Logins, m.Refreshes, m.Logouts, m.Registrations,
		m.BlacklistHits, m.SweptRows, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

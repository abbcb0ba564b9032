// Package metrics provides Prometheus metrics for the auth service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldops_auth"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	loginAttempts     *prometheus.CounterVec
	lockouts          prometheus.Counter
	tokenRefreshes    *prometheus.CounterVec
	passwordResets    *prometheus.CounterVec
	tenantResolutions *prometheus.HistogramVec
}

// New registers the metrics on a fresh registry, with the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		loginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		lockouts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_lockouts_total",
				Help:      "Accounts locked after too many failed logins",
			},
		),
		tokenRefreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Refresh token exchanges by outcome",
			},
			[]string{"outcome"},
		),
		passwordResets: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "password_resets_total",
				Help:      "Password reset events by stage",
			},
			[]string{"stage"},
		),
		tenantResolutions: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tenant_resolution_duration_seconds",
				Help:      "Time to resolve a tenant and its store handle",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"outcome"},
		),
	}
}

// Registry is the registry backing the scrape handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WatchTenantStores exports the number of open tenant store handles.
func (m *Metrics) WatchTenantStores(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tenant_store_handles",
			Help:      "Open tenant store handles",
		},
		func() float64 { return float64(count()) },
	)
}

func (m *Metrics) LoginAttempt(outcome string) {
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccountLocked() {
	m.lockouts.Inc()
}

func (m *Metrics) TokenRefresh(outcome string) {
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PasswordReset(stage string) {
	m.passwordResets.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveTenantResolution(outcome string, elapsed time.Duration) {
	m.tenantResolutions.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Middleware records request counts and latency by route template, so
// path parameters do not explode the label space.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}

		m.requestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

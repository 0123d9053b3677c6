package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Verification channels.
const (
	ChannelHeader = "header"
	ChannelCookie = "cookie"
)

// Metrics collects authentication metrics.
type Metrics interface {
	RecordLogin(outcome string)
	RecordSignup(outcome string)
	RecordVerification(channel, outcome string)
	Handler() http.Handler
}

// PrometheusMetrics registers collectors on its own registry so tests can
// create as many instances as they like.
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	logins        *prometheus.CounterVec
	signups       *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers all metrics.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tbox_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		signups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tbox_signups_total",
			Help: "Total number of signup attempts by outcome",
		}, []string{"outcome"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tbox_token_verifications_total",
			Help: "Total number of credential verifications by channel and outcome",
		}, []string{"channel", "outcome"}),
	}
}

// RecordLogin increments the login counter.
func (m *PrometheusMetrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordSignup increments the signup counter.
func (m *PrometheusMetrics) RecordSignup(outcome string) {
	m.signups.WithLabelValues(outcome).Inc()
}

// RecordVerification increments the verification counter.
func (m *PrometheusMetrics) RecordVerification(channel, outcome string) {
	m.verifications.WithLabelValues(channel, outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordLogin(string)                {}
func (NopMetrics) RecordSignup(string)               {}
func (NopMetrics) RecordVerification(string, string) {}

func (NopMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

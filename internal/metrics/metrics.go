package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry     *prometheus.Registry
	RPCRequests  *prometheus.CounterVec
	RPCDuration  *prometheus.HistogramVec
	Transactions *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digitalme_rpc_requests_total",
			Help: "Blockchain RPC requests by method and status",
		}, []string{"method", "status"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digitalme_rpc_request_duration_seconds",
			Help:    "Blockchain RPC request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digitalme_transactions_total",
			Help: "Contract transactions by operation and outcome (submitted, dry_run, failed)",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) ObserveRPC(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(method, status).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) IncTransaction(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

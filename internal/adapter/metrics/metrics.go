package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

const namespace = "fundledger"

// Metrics records processor activity on its own registry
type Metrics struct {
	registry        *prometheus.Registry
	commands        *prometheus.CounterVec
	nav             prometheus.Gauge
	fees            prometheus.Counter
	persistFailures prometheus.Counter
}

// New creates the collectors and registers them, along with the Go runtime
// collectors, on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Processed commands by name and result",
		}, []string{"command", "result"}),
		nav: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nav",
			Help:      "Latest fund net asset value recorded",
		}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "performance_fees_total",
			Help:      "Sum of performance fees charged",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Commits whose save to the store failed",
		}),
	}
	m.registry.MustRegister(
		m.commands, m.nav, m.fees, m.persistFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand counts a command under "ok" or its error kind
func (m *Metrics) ObserveCommand(command string, err error) {
	m.commands.WithLabelValues(command, result(err)).Inc()
}

// ObserveNAV sets the NAV gauge
func (m *Metrics) ObserveNAV(nav decimal.Decimal) {
	m.nav.Set(nav.InexactFloat64())
}

// ObserveFee adds a charged fee
func (m *Metrics) ObserveFee(amount decimal.Decimal) {
	if amount.IsPositive() {
		m.fees.Add(amount.InexactFloat64())
	}
}

// ObservePersistFailure counts a failed save
func (m *Metrics) ObservePersistFailure() {
	m.persistFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	kind := domain.KindOf(err)
	if kind == 0 {
		return "error"
	}
	return strings.ReplaceAll(kind.String(), " ", "_")
}

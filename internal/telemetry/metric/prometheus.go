package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memkv"

// Command status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected prometheus.Counter
	ProtocolErrors      prometheus.Counter

	// Keyspace metrics
	ExpiredKeys prometheus.Counter
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus the memkv server metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands processed.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency in seconds.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"command"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted client connections.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections closed on accept because the client limit was reached.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections closed after a malformed frame.",
		}),
		ExpiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_total",
			Help:      "Keys removed because their TTL passed.",
		}),
	}

	reg.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectionsActive,
		r.ConnectionsAccepted,
		r.ConnectionsRejected,
		r.ProtocolErrors,
		r.ExpiredKeys,
	)
	return r
}

// Register adds an extra collector, such as a KeyspaceCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordCommand counts one command and observes its latency.
func (r *Registry) RecordCommand(command string, ok bool, elapsed time.Duration) {
	status := StatusOK
	if !ok {
		status = StatusError
	}
	r.CommandsTotal.WithLabelValues(command, status).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	r.ConnectionsAccepted.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	r.ConnectionsActive.Dec()
}

// ConnRejected records a connection refused for lack of a client slot.
func (r *Registry) ConnRejected() {
	r.ConnectionsRejected.Inc()
}

// IncProtocolErrors records a connection dropped for a framing error.
func (r *Registry) IncProtocolErrors() {
	r.ProtocolErrors.Inc()
}

// AddExpired records n keys removed by expiry.
func (r *Registry) AddExpired(n int) {
	r.ExpiredKeys.Add(float64(n))
}

package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal    *prometheus.CounterVec
	CommandErrors    prometheus.Counter
	ConnectedClients prometheus.Gauge
	BlockedClients   prometheus.Gauge
	KeyspaceHits     prometheus.Counter
	KeyspaceMisses   prometheus.Counter
	ExpiredKeys      prometheus.Counter
	PubSubMessages   prometheus.Counter
}

// New creates the instrument set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "commands_total",
			Help:      "Commands processed, by command name.",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "command_errors_total",
			Help:      "Commands that produced an error reply.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keymesh",
			Name:      "connected_clients",
			Help:      "Currently connected clients.",
		}),
		BlockedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keymesh",
			Name:      "blocked_clients",
			Help:      "Clients parked on blocking commands.",
		}),
		KeyspaceHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "keyspace_hits_total",
			Help:      "Key lookups that found a live key.",
		}),
		KeyspaceMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "keyspace_misses_total",
			Help:      "Key lookups that found nothing.",
		}),
		ExpiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "expired_keys_total",
			Help:      "Keys removed by lazy or active expiry.",
		}),
		PubSubMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keymesh",
			Name:      "pubsub_messages_total",
			Help:      "Messages delivered to subscribers.",
		}),
	}

	reg.MustRegister(
		m.CommandsTotal,
		m.CommandErrors,
		m.ConnectedClients,
		m.BlockedClients,
		m.KeyspaceHits,
		m.KeyspaceMisses,
		m.ExpiredKeys,
		m.PubSubMessages,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics endpoint on addr. It blocks, so callers run
// it in a goroutine; an empty addr disables the listener.
func (m *Metrics) Serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}

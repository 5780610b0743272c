package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics records cart command throughput, upstream call latency,
// and discarded stale responses.
type SessionMetrics struct {
	commands        *prometheus.CounterVec
	upstreamSeconds *prometheus.HistogramVec
	upstreamFailure *prometheus.CounterVec
	staleDiscards   *prometheus.CounterVec
}

// NewSessionMetrics registers the session metrics on the provided registerer.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		return &SessionMetrics{}
	}
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_commands_total",
		Help: "Cart commands applied, by command name.",
	}, []string{"command"})
	upstreamSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_seconds",
		Help:    "Duration of catalog and optimizer calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
	upstreamFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failures_total",
		Help: "Failed catalog and optimizer calls.",
	}, []string{"target"})
	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stale_responses_discarded_total",
		Help: "Responses dropped because a newer request superseded them.",
	}, []string{"kind"})
	reg.MustRegister(commands, upstreamSeconds, upstreamFailure, staleDiscards)
	return &SessionMetrics{
		commands:        commands,
		upstreamSeconds: upstreamSeconds,
		upstreamFailure: upstreamFailure,
		staleDiscards:   staleDiscards,
	}
}

// IncCommand counts one applied cart command.
func (m *SessionMetrics) IncCommand(command string) {
	if m == nil || m.commands == nil {
		return
	}
	m.commands.WithLabelValues(normalizeLabel(command)).Inc()
}

// ObserveUpstream records the duration of an upstream call.
func (m *SessionMetrics) ObserveUpstream(target string, duration time.Duration) {
	if m == nil || m.upstreamSeconds == nil {
		return
	}
	m.upstreamSeconds.WithLabelValues(normalizeLabel(target)).Observe(duration.Seconds())
}

// IncUpstreamFailure counts one failed upstream call.
func (m *SessionMetrics) IncUpstreamFailure(target string) {
	if m == nil || m.upstreamFailure == nil {
		return
	}
	m.upstreamFailure.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncStaleDiscard counts one discarded stale response.
func (m *SessionMetrics) IncStaleDiscard(kind string) {
	if m == nil || m.staleDiscards == nil {
		return
	}
	m.staleDiscards.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

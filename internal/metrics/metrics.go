// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection state and reconnect attempts
//   - Outbound message rates (sent / queued / dropped)
//   - Inbound frame rates and parse errors
//   - Heartbeat timeouts
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionState is the current session state (0=disconnected,
	// 1=connecting, 2=connected, 3=reconnecting, 4=failed).
	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "connection_state",
		Help:      "Current connection state of the backend session.",
	})

	// MessagesSent counts envelopes transmitted on the wire.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "messages_sent_total",
		Help:      "Envelopes transmitted to the backend.",
	})

	// MessagesQueued counts envelopes buffered while disconnected.
	MessagesQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "messages_queued_total",
		Help:      "Envelopes buffered in the outbound queue.",
	})

	// MessagesDropped counts envelopes lost to the queue overflow policy.
	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "messages_dropped_total",
		Help:      "Envelopes dropped or rejected by the outbound queue.",
	})

	// MessagesReceived counts inbound frames that decoded successfully.
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "messages_received_total",
		Help:      "Inbound envelopes decoded from the backend.",
	})

	// ParseErrors counts malformed inbound frames discarded.
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "parse_errors_total",
		Help:      "Malformed inbound frames discarded.",
	})

	// Reconnects counts reconnection attempts scheduled.
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "reconnects_total",
		Help:      "Reconnection attempts scheduled after connection loss.",
	})

	// HeartbeatTimeouts counts pong timeouts that forced a close.
	HeartbeatTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voiceagent",
		Subsystem: "session",
		Name:      "heartbeat_timeouts_total",
		Help:      "Heartbeat pong timeouts that force-closed the socket.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

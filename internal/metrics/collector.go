package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tailer metrics
	EntriesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_entries_parsed_total",
			Help: "Total log entries parsed and delivered",
		},
		[]string{"site"},
	)
	BytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_bytes_read_total",
			Help: "Total bytes read from tailed log files",
		},
		[]string{"site"},
	)
	Checks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_checks_total",
			Help: "File change checks by trigger source",
		},
		[]string{"site", "trigger"},
	)
	ChecksCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_checks_coalesced_total",
			Help: "Triggers dropped because a check was already queued",
		},
		[]string{"site"},
	)
	Rotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_rotations_total",
			Help: "Detected truncations or rotations of tailed files",
		},
		[]string{"site"},
	)
	WatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_watch_errors_total",
			Help: "Errors raised while watching or reading a log file",
		},
		[]string{"site"},
	)

	// Fan-out metrics
	Subscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "laratail_subscribers",
			Help: "Currently registered subscribers",
		},
		[]string{"site"},
	)
	SubscriberFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laratail_subscriber_failures_total",
			Help: "Subscriber callbacks that returned an error or panicked",
		},
		[]string{"site", "event"},
	)

	// Registry metrics
	ActiveTailers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laratail_active_tailers",
			Help: "Number of running tailers",
		},
	)
	WebSocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laratail_websocket_sessions",
			Help: "Open WebSocket sessions",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelayConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Number of sessions currently registered with the hub",
		},
	)

	RelayConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Total number of sessions opened",
		},
	)

	RelayChannelsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_channels_active",
			Help: "Number of channels with at least one member",
		},
	)

	RelayFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_received_total",
			Help: "Inbound frames by frame type",
		},
		[]string{"frame_type"},
	)

	RelayBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_broadcasts_total",
			Help: "Total number of broadcast requests processed by the hub",
		},
	)

	RelayDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Per-member deliveries by result",
		},
		[]string{"result"},
	)

	RelayDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_disconnections_total",
			Help: "Session teardowns by reason",
		},
		[]string{"reason"},
	)

	RelaySessionDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_session_duration_seconds",
			Help:    "Lifetime of sessions in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600, 4 * 3600},
		},
	)

	RelayHubQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_hub_queue_depth",
			Help: "Pending requests in a hub mailbox",
		},
		[]string{"shard"},
	)

	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path"},
	)

	RelayRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	RelayRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP error responses by status, path and method",
		},
		[]string{"status", "path", "method"},
	)

	DomainErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_errors_total",
			Help: "Domain errors by category, code and status",
		},
		[]string{"category", "code", "status"},
	)
)

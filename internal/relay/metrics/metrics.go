package metrics

import (
	"time"

	observabilitymetrics "github.com/AlibekovAA/channel-relay/internal/observability/metrics"
)

func IncrementActiveConnections() {
	observabilitymetrics.RelayConnectionsActive.Inc()
	observabilitymetrics.RelayConnectionsTotal.Inc()
}

func DecrementActiveConnections() {
	observabilitymetrics.RelayConnectionsActive.Dec()
}

func IncrementActiveChannels() {
	observabilitymetrics.RelayChannelsActive.Inc()
}

func DecrementActiveChannels() {
	observabilitymetrics.RelayChannelsActive.Dec()
}

func IncrementFrame(frameType string) {
	observabilitymetrics.RelayFramesReceived.WithLabelValues(frameType).Inc()
}

func IncrementBroadcast() {
	observabilitymetrics.RelayBroadcastsTotal.Inc()
}

func IncrementDelivery(result string) {
	observabilitymetrics.RelayDeliveriesTotal.WithLabelValues(result).Inc()
}

func IncrementDisconnection(reason string) {
	observabilitymetrics.RelayDisconnections.WithLabelValues(reason).Inc()
}

func ObserveSessionDuration(d time.Duration) {
	observabilitymetrics.RelaySessionDurationSeconds.Observe(d.Seconds())
}

func SetQueueDepth(shard string, depth int) {
	observabilitymetrics.RelayHubQueueDepth.WithLabelValues(shard).Set(float64(depth))
}

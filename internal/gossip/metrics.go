package gossip

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// gossipMetrics holds the OTel instruments for the gossip transport.
// Instruments are registered against the global provider at init time, so
// they forward to whatever MeterProvider the daemon installs (or silently
// no-op if none is installed).
var gossipMetrics struct {
	eventsSent     metric.Int64Counter
	eventsReceived metric.Int64Counter
	syncRequests   metric.Int64Counter
	pingouts       metric.Int64Counter
	reconnects     metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/Libera-Chat/sable-sub002/gossip")

	gossipMetrics.eventsSent, _ = m.Int64Counter("sable.gossip.events_sent",
		metric.WithDescription("Events propagated to peers"),
		metric.WithUnit("{event}"),
	)
	gossipMetrics.eventsReceived, _ = m.Int64Counter("sable.gossip.events_received",
		metric.WithDescription("Events received from peers"),
		metric.WithUnit("{event}"),
	)
	gossipMetrics.syncRequests, _ = m.Int64Counter("sable.gossip.sync_requests",
		metric.WithDescription("SyncRequest messages sent to close an event gap"),
		metric.WithUnit("{request}"),
	)
	gossipMetrics.pingouts, _ = m.Int64Counter("sable.gossip.pingouts",
		metric.WithDescription("Peers declared unreachable after missing their ping deadline"),
		metric.WithUnit("{pingout}"),
	)
	gossipMetrics.reconnects, _ = m.Int64Counter("sable.gossip.reconnects",
		metric.WithDescription("Peer connection attempts after a dropped link"),
		metric.WithUnit("{attempt}"),
	)
}

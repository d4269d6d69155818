package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_connections_active",
		Help: "Currently open client connections.",
	})
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_rooms_active",
		Help: "Rooms with at least one member.",
	})
	EventsIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_events_in_total",
		Help: "Inbound events by event name.",
	}, []string{"event"})
	Deliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_deliveries_total",
		Help: "Outbound event deliveries attempted.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PushesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_pushes_delivered_total",
		Help: "Live pushes handed to a bound connection.",
	}, []string{"kind"})

	PushesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_pushes_dropped_total",
		Help: "Pushes skipped because the recipient had no live connection.",
	}, []string{"kind"})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections_active",
		Help: "Currently bound live connections.",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

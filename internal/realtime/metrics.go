package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alterstory_realtime_connected_clients",
		Help: "Number of currently connected WebSocket clients.",
	})

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_realtime_deliveries_total",
			Help: "Total number of story events pushed to WebSocket clients by result.",
		},
		[]string{"result"},
	)
)

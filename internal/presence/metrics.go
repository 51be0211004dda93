package presence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// kindArchive labels chat frames dropped before reaching the archive.
const kindArchive = "archive"

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classroom_ws_connections",
		Help: "Currently registered WebSocket connections.",
	})
	onlineUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classroom_ws_online_users",
		Help: "Connections that have announced a login.",
	})
	framesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_ws_frames_delivered_total",
		Help: "Broadcast frames queued to connections, by frame type.",
	}, []string{"type"})
	framesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_ws_frames_skipped_total",
		Help: "Frames dropped because a connection's buffer or the archive relay was full.",
	}, []string{"type"})
	framesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classroom_ws_frames_rejected_total",
		Help: "Inbound frames ignored as malformed or of unknown type.",
	})
)

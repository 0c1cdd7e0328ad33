package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coderoom_relay_active_connections",
			Help: "Currently open relay websocket connections",
		},
	)

	EnvelopesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coderoom_relay_envelopes_total",
			Help: "Envelopes forwarded by the relay",
		},
		[]string{"type"},
	)

	DroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coderoom_relay_dropped_frames_total",
			Help: "Inbound frames dropped as unparseable",
		},
	)

	// Room API metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coderoom_rooms_created_total",
			Help: "Rooms created through the bootstrap API",
		},
	)
)

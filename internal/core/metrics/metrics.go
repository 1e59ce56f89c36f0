// Package metrics exposes prometheus counters for the network server and game loop.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "connections_accepted_total",
			Help:      "Total TCP connections accepted.",
		},
	)
	connectionsRefused = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "connections_refused_total",
			Help:      "Connections closed immediately because max_connections was reached.",
		},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "connections_active",
			Help:      "Connections currently open.",
		},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "sessions_active",
			Help:      "Logged in sessions currently registered.",
		},
	)
	framesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "frames_read_total",
			Help:      "Frames read from clients by connection state.",
		},
		[]string{"state"},
	)
	framesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "frames_written_total",
			Help:      "Frames written to clients.",
		},
	)
	protocolErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "protocol_errors_total",
			Help:      "Malformed frames, undecodable fields, and unexpected packets.",
		},
		[]string{"kind"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "craftmine",
			Subsystem: "network",
			Name:      "commands_total",
			Help:      "Commands received from the game loop.",
		},
		[]string{"kind"},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "craftmine",
			Subsystem: "game",
			Name:      "tick_duration_seconds",
			Help:      "Time spent processing one game loop tick.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connectionsAccepted,
			connectionsRefused,
			connectionsActive,
			sessionsActive,
			framesRead,
			framesWritten,
			protocolErrors,
			commands,
			tickDuration,
		)
	})
}

func ConnectionAccepted() {
	connectionsAccepted.Inc()
	connectionsActive.Inc()
}

func ConnectionClosed() {
	connectionsActive.Dec()
}

func ConnectionRefused() {
	connectionsRefused.Inc()
}

func SetSessions(n int) {
	sessionsActive.Set(float64(n))
}

func FrameRead(state string) {
	framesRead.WithLabelValues(state).Inc()
}

func FrameWritten() {
	framesWritten.Inc()
}

// ProtocolError counts a client error. kind is one of frame, field, or packet.
func ProtocolError(kind string) {
	protocolErrors.WithLabelValues(kind).Inc()
}

func Command(kind string) {
	commands.WithLabelValues(kind).Inc()
}

func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

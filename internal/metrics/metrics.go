// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetalk_auth_attempts_total",
			Help: "Authentication attempts by mode and outcome",
		},
		[]string{"mode", "result"},
	)
	AdminProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "livetalk_admin_provisioned_total",
			Help: "Reserved administrative accounts provisioned on first sign-in",
		},
	)
	SeatOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetalk_seat_operations_total",
			Help: "Seat operations by kind and outcome",
		},
		[]string{"op", "result"},
	)
	OverlaysExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "livetalk_overlay_expiry_sweeps_total",
			Help: "Rooms whose overlays were cleared by the expiry sweeper",
		},
	)
	SignalConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetalk_signal_connections",
			Help: "Open websocket signal connections",
		},
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetalk_rate_limited_total",
			Help: "Signal messages rejected by the per-user rate limiter",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(AuthAttempts)
	prometheus.MustRegister(AdminProvisioned)
	prometheus.MustRegister(SeatOps)
	prometheus.MustRegister(OverlaysExpired)
	prometheus.MustRegister(SignalConnections)
	prometheus.MustRegister(RateLimited)
}

// Outcome maps an error to the "result" label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

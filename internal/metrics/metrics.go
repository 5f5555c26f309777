// Package metrics exposes the session engine's Prometheus instrumentation.
// Grounded on matst80-showoff/internal/obs/metrics.go's promauto registration
// style; the diagnostics server (package diag) serves these over /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionState reports the current connection-state-machine state as
	// an enum gauge (0=Idle .. 5=Terminating), matching session.State's
	// ordering.
	SessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inputshare_session_state",
		Help: "Current connection state machine state (0=Idle,1=Resolving,2=Connecting,3=AwaitingHello,4=Active,5=Terminating)",
	})

	ConnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inputshare_connect_attempts_total",
		Help: "Total connect() invocations that resulted in network activity",
	})

	ConnectFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputshare_connect_failures_total",
		Help: "Connection failures by reason",
	}, []string{"reason"})

	HandshakeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inputshare_handshake_duration_seconds",
		Help:    "Time from entering Connecting (before the transport connect is issued) to Active",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	ClipboardSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputshare_clipboard_sends_total",
		Help: "Clipboard payloads transmitted to the remote, by slot",
	}, []string{"slot"})

	ReconnectsAfterResumeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inputshare_reconnects_after_resume_total",
		Help: "connect() calls made automatically after an OS resume",
	})
)

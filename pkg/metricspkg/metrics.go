// Package metricspkg holds the prometheus collectors of the subsystem.
package metricspkg

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
)

var (
	// LedgerRequests counts ledger calls by operation and outcome.
	LedgerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coincard_ledger_requests_total",
		Help: "ledger requests by operation and outcome",
	}, []string{"op", "outcome"})

	// LedgerLatency observes ledger call latency by operation.
	LedgerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coincard_ledger_request_seconds",
		Help:    "ledger request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// QueueDepth is the number of pending queued mutations.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coincard_queue_depth",
		Help: "pending mutations in the sequential queue",
	})

	// QueueTasks counts drained tasks by outcome.
	QueueTasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coincard_queue_tasks_total",
		Help: "drained queue tasks by outcome",
	}, []string{"outcome"})

	// CooldownRejections counts actions refused by the cooldown gate.
	CooldownRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coincard_cooldown_rejections_total",
		Help: "actions rejected by the per-actor cooldown",
	})

	// ListenerPanics counts recovered balance listener panics.
	ListenerPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coincard_listener_panics_total",
		Help: "recovered panics raised by balance listeners",
	})

	// LeaderboardBuilds counts leaderboard rebuilds by outcome.
	LeaderboardBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coincard_leaderboard_builds_total",
		Help: "leaderboard rebuilds by outcome",
	}, []string{"outcome"})

	// LeaderboardAccounts is the number of ranked accounts in the current snapshot.
	LeaderboardAccounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coincard_leaderboard_accounts",
		Help: "accounts ranked in the current leaderboard",
	})
)

func init() {
	prometheus.MustRegister(
		LedgerRequests,
		LedgerLatency,
		QueueDepth,
		QueueTasks,
		CooldownRejections,
		ListenerPanics,
		LeaderboardBuilds,
		LeaderboardAccounts,
	)
}

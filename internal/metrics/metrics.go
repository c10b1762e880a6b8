package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DealsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_deals_recorded_total", Help: "Total deals recorded in the ledger"},
	)
	DisputesRaised = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_disputes_raised_total", Help: "Total disputes raised against deals"},
	)
	DisputesResolved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_disputes_resolved_total", Help: "Total disputes resolved by admins"},
	)
	PointsOverrides = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_points_overrides_total", Help: "Total admin point overrides"},
	)
	SnapshotsTaken = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tournament_snapshots_total", Help: "Total leaderboard snapshots persisted"},
	)
	WeeksRotated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tournament_weeks_rotated_total", Help: "Total tournament week rotations"},
	)
	SchedulerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scheduler_errors_total", Help: "Total per-guild scheduled job failures"},
	)
)

func Register() {
	prometheus.MustRegister(DealsRecorded, DisputesRaised, DisputesResolved,
		PointsOverrides, SnapshotsTaken, WeeksRotated, SchedulerErrors)
}

package curriculum

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the cache's health: how long level recomputations take,
// how many branches fail, and how big each level currently is.
type Metrics struct {
	RefreshDuration *prometheus.HistogramVec
	BranchFailures  *prometheus.CounterVec
	LevelSize       *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "darasa",
			Subsystem: "curriculum_cache",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent recomputing one cache level, including its fan-out.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"level"}),
		BranchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darasa",
			Subsystem: "curriculum_cache",
			Name:      "branch_failures_total",
			Help:      "Per-parent fetches that failed and contributed an empty branch.",
		}, []string{"level"}),
		LevelSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "darasa",
			Subsystem: "curriculum_cache",
			Name:      "level_size",
			Help:      "Number of records currently held per cache level.",
		}, []string{"level"}),
	}
	reg.MustRegister(m.RefreshDuration, m.BranchFailures, m.LevelSize)
	return m
}

package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundcli_runs_total",
		Help: "Processing runs by outcome.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fundcli_run_duration_seconds",
		Help:    "End-to-end processing run duration.",
		Buckets: prometheus.DefBuckets,
	})
)

func observeRun(status string, elapsed time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(elapsed.Seconds())
}

package budgetsync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramSyncDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "budgetbox",
		Subsystem: "sync",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	},
	[]string{"outcome"},
)

func outcomeLabel(o *Outcome, err error) string {
	switch {
	case err != nil:
		return "error"
	case o.Inserted:
		return "inserted"
	case o.Accepted:
		return "accepted"
	default:
		return "server_newer"
	}
}

func observeSync(elapsed time.Duration, o *Outcome, err error) {
	histogramSyncDuration.
		WithLabelValues(outcomeLabel(o, err)).
		Observe(elapsed.Seconds())
}

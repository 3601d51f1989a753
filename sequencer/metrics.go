package sequencer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "cdk"
	metricsSubsystem = "sequencer"

	rejectUnavailable = "unavailable"
	rejectDuplicate   = "duplicate"
	rejectFailure     = "failure"
)

type metrics struct {
	txTotal         prometheus.Counter
	lastOrder       prometheus.Gauge
	rejected        *prometheus.CounterVec
	sequenceSeconds prometheus.Histogram
}

// newMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		txTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tx_total",
			Help:      "Number of sequenced transactions",
		}),
		lastOrder: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_order",
			Help:      "Last assigned tx order",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rejected_total",
			Help:      "Number of rejected transactions by reason",
		}, []string{"reason"}),
		sequenceSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sequence_seconds",
			Help:      "Time spent sequencing a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), //nolint:mnd
		}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification metrics
var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_labeler_classifications_total",
			Help: "Total number of emails classified",
		},
		[]string{"label", "source"},
	)

	ClassificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_labeler_classification_failures_total",
			Help: "Total number of emails that could not be processed",
		},
		[]string{"stage"},
	)

	SkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_labeler_skipped_total",
			Help: "Total number of emails skipped without classification",
		},
		[]string{"reason"},
	)

	LabelsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_labeler_labels_applied_total",
			Help: "Total number of labels added to messages",
		},
	)
)

// Model metrics
var (
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_labeler_model_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"result"},
	)

	ModelCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_labeler_model_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

// Monitor metrics
var (
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_labeler_polls_total",
			Help: "Total number of mailbox polls",
		},
		[]string{"result"},
	)

	HistoryCursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mail_labeler_history_cursor",
			Help: "Last mailbox history id processed by the monitor",
		},
	)
)

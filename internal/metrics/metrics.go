package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Engine Metrics
var (
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsRecorded,
			Help: HelpTextEventsRecorded,
		},
		[]string{LabelType, LabelDelivery},
	)

	EventsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsQueued,
			Help: HelpTextEventsQueued,
		},
		[]string{LabelType},
	)

	EventsReplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsReplayed,
			Help: HelpTextEventsReplayed,
		},
		[]string{LabelType},
	)

	EventsDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsDeadLettered,
			Help: HelpTextEventsDeadLettered,
		},
		[]string{LabelType},
	)

	EventsLost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEventsLost,
			Help: HelpTextEventsLost,
		},
	)

	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRefreshes,
			Help: HelpTextRefreshes,
		},
		[]string{LabelOutcome},
	)

	ReplayPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameReplayPasses,
			Help: HelpTextReplayPasses,
		},
	)

	NormalizerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameNormalizerFallbacks,
			Help: HelpTextNormalizerFallbacks,
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameQueueDepth,
			Help: HelpTextQueueDepth,
		},
	)
)

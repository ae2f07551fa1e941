package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names (diagnostics listener)
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Engine metric names
const (
	MetricNameEventsRecorded      = "progress_events_recorded_total"
	MetricNameEventsQueued        = "progress_events_queued_total"
	MetricNameEventsReplayed      = "progress_events_replayed_total"
	MetricNameEventsDeadLettered  = "progress_events_dead_lettered_total"
	MetricNameEventsLost          = "progress_events_lost_total"
	MetricNameRefreshes           = "progress_refreshes_total"
	MetricNameReplayPasses        = "progress_replay_passes_total"
	MetricNameNormalizerFallbacks = "progress_normalizer_fallbacks_total"
	MetricNameQueueDepth          = "progress_queue_depth"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

const (
	HelpTextEventsRecorded      = "Total achievement events recorded, by type and delivery path"
	HelpTextEventsQueued        = "Total achievement events enqueued for offline replay"
	HelpTextEventsReplayed      = "Total queued events confirmed accepted during replay"
	HelpTextEventsDeadLettered  = "Total queued events dead-lettered after authoritative rejection"
	HelpTextEventsLost          = "Total events lost because both direct send and the local store failed"
	HelpTextRefreshes           = "Total summary refreshes, by outcome"
	HelpTextReplayPasses        = "Total replay passes over the offline queue"
	HelpTextNormalizerFallbacks = "Total remote payloads no known shape matched"
	HelpTextQueueDepth          = "Current number of events waiting in the offline queue"
)

// Label names
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelDelivery = "delivery"
	LabelOutcome  = "outcome"
)

// Delivery label values
const (
	DeliveryDirect = "direct"
	DeliveryQueued = "queued"
)

// Outcome label values
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// HTTPLatencyBuckets are tuned for a localhost diagnostics listener.
var HTTPLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

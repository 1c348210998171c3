package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TransformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qwikbridge_transform_seconds",
		Help:    "Time spent transforming a test module.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qwikbridge_detections_total",
		Help: "Modules checked for render-trigger call sites, by result.",
	}, []string{"result"})

	RewrittenCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwikbridge_rewritten_calls_total",
		Help: "Total number of call sites rewritten into bridge invocations.",
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwikbridge_parse_failures_total",
		Help: "Total number of modules that failed to parse.",
	})

	ResolutionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwikbridge_resolution_fallbacks_total",
		Help: "Import specifiers resolved through the heuristic fallback.",
	})

	BridgeCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qwikbridge_bridge_command_seconds",
		Help:    "Time spent executing a bridge render command.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	BridgeCommandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qwikbridge_bridge_command_errors_total",
		Help: "Bridge command failures, by command name.",
	}, []string{"command"})

	TempCleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwikbridge_temp_cleanup_failures_total",
		Help: "Derived test modules that could not be deleted after a render.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwikbridge_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

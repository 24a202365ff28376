// Package metrics holds the Prometheus collectors shared by the panel
// connector, the order reconciler and the placement flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeGaveUp    = "gave_up"
)

// PanelRequests counts upstream panel calls by action and outcome.
var PanelRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "smm",
		Subsystem: "panel",
		Name:      "requests_total",
		Help:      "Total panel API requests by action and outcome",
	},
	[]string{"action", "outcome"},
)

// PanelRequestDuration tracks upstream panel latency.
var PanelRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "smm",
		Subsystem: "panel",
		Name:      "request_duration_seconds",
		Help:      "Panel API request latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
	[]string{"action"},
)

// ReconcilePasses counts reconciliation passes that had at least one candidate.
var ReconcilePasses = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "smm",
		Subsystem: "orders",
		Name:      "reconcile_passes_total",
		Help:      "Total reconciliation passes that queried the panel",
	},
)

// OrderSyncs counts per-order sync results (changed, unchanged, error, gave_up).
var OrderSyncs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "smm",
		Subsystem: "orders",
		Name:      "syncs_total",
		Help:      "Per-order status sync results",
	},
	[]string{"outcome"},
)

// OrderPlacements counts placement attempts by outcome.
var OrderPlacements = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "smm",
		Subsystem: "orders",
		Name:      "placements_total",
		Help:      "Order placement attempts by outcome",
	},
	[]string{"outcome"},
)

// ObservePanelRequest records one panel call.
func ObservePanelRequest(action string, started time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	PanelRequests.WithLabelValues(action, outcome).Inc()
	PanelRequestDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freight",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Total number of engine operations broken down by operation and result.",
	}, []string{"operation", "result"})

	enginePayablesDetached = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freight",
		Subsystem: "engine",
		Name:      "payables_detached_total",
		Help:      "Total number of payables detached from settlement batches by holds.",
	})

	engineLoadsPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freight",
		Subsystem: "engine",
		Name:      "loads_promoted_total",
		Help:      "Total number of spot loads converted to contract loads.",
	})

	engineWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freight",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of freight write conflicts broken down by kind.",
	}, []string{"kind"})

	reviewBadgeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freight",
		Subsystem: "cache",
		Name:      "review_badge_requests_total",
		Help:      "Total number of review badge cache lookups broken down by hit/miss.",
	}, []string{"result"})
)

// recordOperation labels the outcome as ok, rejected (business failure) or error.
func recordOperation(operation, result string) {
	if result == "" {
		result = "ok"
	}
	engineOperations.WithLabelValues(operation, result).Inc()
}

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	engineWriteConflicts.WithLabelValues(kind).Inc()
}

func recordBadgeLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	reviewBadgeLookups.WithLabelValues(result).Inc()
}

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "authz",
	Name:      "decisions_total",
	Help:      "Total number of authorization decisions broken down by mode and result.",
}, []string{"mode", "result"})

func recordDecision(mode Mode, result string) {
	decisionsTotal.With(prometheus.Labels{
		"mode":   string(mode),
		"result": result,
	}).Inc()
}

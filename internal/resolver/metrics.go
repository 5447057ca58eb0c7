package resolver

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes recorded by the lookups counter.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
)

type metrics struct {
	lookups *prometheus.CounterVec
}

// newMetrics registers the resolver collectors with reg. A nil registerer
// disables metrics. Registering twice reuses the existing collector.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enmity",
			Subsystem: "resolver",
			Name:      "lookups_total",
			Help:      "Module lookups handled by the fallback resolver, by outcome",
		},
		[]string{"outcome"},
	)
	if err := reg.Register(lookups); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		lookups = existing
	}
	return &metrics{lookups: lookups}
}

func (m *metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

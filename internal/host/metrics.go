package host

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	events      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tycoon_invocations_total",
				Help: "Ledger invocations by operation and result",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tycoon_invocation_duration_seconds",
				Help:    "Ledger invocation latency including commit",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tycoon_events_published_total",
				Help: "Ledger events handed to the event sink",
			},
			[]string{"topic", "result"},
		),
	}

	m.invocations = register(reg, m.invocations)
	m.duration = register(reg, m.duration)
	m.events = register(reg, m.events)
	return m
}

// register returns the collector already registered under the same name, so
// several hosts can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

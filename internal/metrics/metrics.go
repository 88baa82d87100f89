// Package metrics exposes pilot activity as Prometheus collectors fed by
// lifecycle hooks.
package metrics

import (
	"context"
	"strconv"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collectors groups the pilot's metrics on a private registry.
type Collectors struct {
	registry *prometheus.Registry

	dispatches  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	injections  *prometheus.CounterVec
	duration    prometheus.Histogram
	phase       *prometheus.GaugeVec
}

// New creates and registers the pilot collectors. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_dispatch_total",
				Help: "Host notifications handled, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_phase_transitions_total",
				Help: "Phase changes, including resets to idle",
			},
			[]string{"from", "to"},
		),
		injections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_injections_total",
				Help: "Inputs pushed into the dialog",
			},
			[]string{"activated", "error"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ussdpilot_dispatch_duration_seconds",
				Help:    "Time spent handling a single notification",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
			},
		),
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ussdpilot_phase",
				Help: "Current phase (1 for the active phase, 0 otherwise)",
			},
			[]string{"phase"},
		),
	}
	c.registry.MustRegister(c.dispatches, c.transitions, c.injections, c.duration, c.phase)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	c.setPhase(domain.PhaseIdle)
	return c
}

// Gatherer returns the registry backing these collectors.
func (c *Collectors) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Hooks returns lifecycle hooks that record into the collectors.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			c.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			c.setPhase(e.To)
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			c.dispatches.WithLabelValues(string(e.Kind), string(e.Outcome)).Inc()
			c.duration.Observe(e.Duration.Seconds())
		},
		OnInject: func(_ context.Context, e *domain.InjectEvent) {
			c.injections.WithLabelValues(strconv.FormatBool(e.Activated), strconv.FormatBool(e.IsError)).Inc()
		},
	}
}

func (c *Collectors) setPhase(active domain.Phase) {
	for _, p := range []domain.Phase{
		domain.PhaseIdle,
		domain.PhaseMenuMain,
		domain.PhaseEnterDestination,
		domain.PhaseEnterAmount,
		domain.PhaseConfirm,
		domain.PhaseSuccess,
		domain.PhaseFailed,
	} {
		v := 0.0
		if p == active {
			v = 1
		}
		c.phase.WithLabelValues(string(p)).Set(v)
	}
}

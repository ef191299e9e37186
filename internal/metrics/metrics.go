// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Manager owns the filter metrics and the registry they are exposed from.
type Manager struct {
	registry *prometheus.Registry

	compiled    prometheus.Counter
	dropped     *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

func NewMetricsManager() *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		compiled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quifilter_filters_compiled_total",
			Help: "Column filters compiled into an expression fragment",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quifilter_filters_dropped_total",
			Help: "Column filters omitted from the compiled expression",
		}, []string{"reason"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quifilter_local_evaluations_total",
			Help: "Records evaluated by the local predicate evaluator",
		}, []string{"record"}),
	}

	m.registry.MustRegister(
		m.compiled,
		m.dropped,
		m.evaluations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// RecordCompilation counts one compile run: compiled fragments plus the reason of every dropped filter.
func (m *Manager) RecordCompilation(compiled int, droppedReasons []string) {
	if m == nil {
		return
	}
	m.compiled.Add(float64(compiled))
	for _, reason := range droppedReasons {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

// RecordEvaluations counts records run through the local evaluator, labelled by record kind.
func (m *Manager) RecordEvaluations(record string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evaluations.WithLabelValues(record).Add(float64(n))
}

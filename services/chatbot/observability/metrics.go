// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the chatbot service.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "atlaschat"
	chatSubsystem    = "chat"
)

// Metrics holds all Prometheus metrics for chat handling.
//
// # Fields
//
//   - QueriesTotal: Counter of chat queries by kind (fresh, continuation)
//     and status (success, error).
//   - TruncationsTotal: Counter of completions cut off at the output limit.
//   - SalvagesTotal: Counter of empty completions salvaged, by extractor.
//   - StatesSweptTotal: Counter of continuation states removed by sweeps.
//   - StatesActive: Gauge of continuation states currently stored. Only fed
//     by backends that can count cheaply; stays at zero otherwise.
//   - CompletionDurationSeconds: Histogram of completion backend latency.
type Metrics struct {
	QueriesTotal              *prometheus.CounterVec
	TruncationsTotal          prometheus.Counter
	SalvagesTotal             *prometheus.CounterVec
	StatesSweptTotal          prometheus.Counter
	StatesActive              prometheus.Gauge
	CompletionDurationSeconds prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the singleton Metrics registered on the global Prometheus
// registry. Safe to call from multiple goroutines; registration happens
// once.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = newMetrics(nil)
	})
	return defaultMetrics
}

// NewMetrics registers a fresh metrics set on reg. Used by tests to avoid
// duplicate registration on the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}
	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "queries_total",
			Help:      "Chat queries handled, by kind and status.",
		}, []string{"kind", "status"}),
		TruncationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "truncations_total",
			Help:      "Completions cut off by the backend output limit.",
		}),
		SalvagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "salvages_total",
			Help:      "Empty completions salvaged from the reasoning side channel, by extractor.",
		}, []string{"extractor"}),
		StatesSweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "continuation_states_swept_total",
			Help:      "Expired continuation states removed by sweeps.",
		}),
		StatesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "continuation_states_active",
			Help:      "Continuation states currently stored.",
		}),
		CompletionDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: chatSubsystem,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion backend calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports cycle observations as Prometheus metrics
type PrometheusRecorder struct {
	cycles        *prometheus.CounterVec
	items         *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them with reg
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizsync",
			Name:      "cycles_total",
			Help:      "Sync cycles by outcome",
		}, []string{"outcome"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizsync",
			Name:      "answer_sets_total",
			Help:      "Answer sets processed by sync cycles, by result",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quizsync",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of completed sync cycles",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{r.cycles, r.items, r.cycleDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveCycle(_ context.Context, timing CycleTiming) {
	r.cycles.WithLabelValues(string(timing.Outcome)).Inc()
	if timing.Outcome != OutcomeCompleted {
		return
	}
	r.cycleDuration.Observe(timing.Duration.Seconds())
	r.items.WithLabelValues("synced").Add(float64(timing.Synced))
	r.items.WithLabelValues("failed").Add(float64(timing.Failed - timing.Abandoned))
	r.items.WithLabelValues("abandoned").Add(float64(timing.Abandoned))
}

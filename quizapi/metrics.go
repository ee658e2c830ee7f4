// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

type SubmissionMetrics interface {
	ObserveSubmission(ctx context.Context, status, reason string)
}

type SubmissionMetricsFunc func(ctx context.Context, status, reason string)

func (f SubmissionMetricsFunc) ObserveSubmission(ctx context.Context, status, reason string) {
	f(ctx, status, reason)
}

// PrometheusSubmissionMetrics counts submissions by status and rejection reason
type PrometheusSubmissionMetrics struct {
	submissions *prometheus.CounterVec
}

func NewPrometheusSubmissionMetrics(reg prometheus.Registerer) (*PrometheusSubmissionMetrics, error) {
	m := &PrometheusSubmissionMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizapi",
			Name:      "submissions_total",
			Help:      "Answer submissions by status and rejection reason",
		}, []string{"status", "reason"}),
	}
	if err := reg.Register(m.submissions); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PrometheusSubmissionMetrics) ObserveSubmission(_ context.Context, status, reason string) {
	m.submissions.WithLabelValues(status, reason).Inc()
}

// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"context"
	"time"
)

// CycleTiming describes one finished sync cycle
type CycleTiming struct {
	Outcome   Outcome
	Duration  time.Duration
	Attempted int
	Synced    int
	Failed    int
	Abandoned int
}

type CycleMetricsRecorder interface {
	ObserveCycle(ctx context.Context, timing CycleTiming)
}

type CycleMetricsRecorderFunc func(ctx context.Context, timing CycleTiming)

func (f CycleMetricsRecorderFunc) ObserveCycle(ctx context.Context, timing CycleTiming) {
	f(ctx, timing)
}

func (c *Coordinator) cycleTimingEnabled() bool {
	return c.config.Metrics != nil || c.config.LogCycleTimings
}

func (c *Coordinator) cycleStart() time.Time {
	if !c.cycleTimingEnabled() {
		return time.Time{}
	}
	return time.Now()
}

func (c *Coordinator) observeCycle(ctx context.Context, start time.Time, attempted int, res Result) {
	if start.IsZero() {
		return
	}

	timing := CycleTiming{
		Outcome:   res.Outcome,
		Duration:  time.Since(start),
		Attempted: attempted,
		Synced:    res.Synced,
		Failed:    res.Failed,
		Abandoned: res.Abandoned,
	}

	if c.config.Metrics != nil {
		c.config.Metrics.ObserveCycle(ctx, timing)
	}
	if c.config.LogCycleTimings {
		c.logger.Debug("Cycle timing",
			"outcome", string(timing.Outcome),
			"duration", timing.Duration,
			"attempted", timing.Attempted,
			"synced", timing.Synced,
			"failed", timing.Failed,
			"abandoned", timing.Abandoned,
		)
	}
}

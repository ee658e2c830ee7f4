// Package quizsync drains the local queue of completed answer sets to the submission
// service whenever the device is online.
//
// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mobiletoly/go-quizsync/localstore"
	"github.com/mobiletoly/go-quizsync/netmon"
)

// Messages used in Result.Errors when a cycle does not run
const (
	MsgAlreadyRunning = "sync already in progress"
	MsgNoConnection   = "no network connection"
)

// AnswerQueue is the part of the local store the coordinator drives
type AnswerQueue interface {
	UnsyncedAnswerSets(ctx context.Context) []localstore.PendingAnswerSet
	MarkSynced(ctx context.Context, id string) error
	IncrementAttempts(ctx context.Context, id string) error
	PruneSynced(ctx context.Context) (int, error)
	LastSyncTime(ctx context.Context) (time.Time, bool)
	SetLastSyncTime(ctx context.Context, t time.Time) error
}

// Connectivity is the part of the network monitor the coordinator needs
type Connectivity interface {
	ConnectionStatus() bool
	AddListener(fn netmon.Listener) func()
	WaitForConnection(ctx context.Context, timeout time.Duration) bool
}

// Submitter delivers one answer set to the server
type Submitter interface {
	SubmitAnswers(ctx context.Context, set localstore.PendingAnswerSet) error
}

// Config holds the coordinator's timing and retry settings
type Config struct {
	SyncInterval     time.Duration // periodic cycle interval
	ReconnectDelay   time.Duration // debounce after a reconnect before syncing
	MaxAttempts      int           // failed submissions before a set is abandoned
	ForceSyncTimeout time.Duration // how long ForceSyncNow waits for connectivity

	// Optional cycle metrics hook
	Metrics CycleMetricsRecorder

	// LogCycleTimings emits a debug log line per cycle
	LogCycleTimings bool
}

func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     60 * time.Second,
		ReconnectDelay:   2 * time.Second,
		MaxAttempts:      localstore.DefaultMaxAttempts,
		ForceSyncTimeout: 5 * time.Second,
	}
}

// Outcome tells whether a cycle ran
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeAlreadyRunning Outcome = "already_running"
	OutcomeNoConnection   Outcome = "no_connection"
)

// Result summarizes one call to SyncPendingAnswers
type Result struct {
	Success   bool
	Synced    int
	Failed    int // includes abandoned sets
	Abandoned int
	Errors    []string
	Outcome   Outcome
}

// Status is a snapshot for UI banners
type Status struct {
	IsSyncing      bool
	IsOnline       bool
	PendingCount   int
	AbandonedCount int
	LastSyncTime   time.Time // zero when no cycle has completed yet
}

// Coordinator runs sync cycles, one at a time
type Coordinator struct {
	queue     AnswerQueue
	conn      Connectivity
	submitter Submitter
	config    *Config
	logger    *slog.Logger
	now       func() time.Time

	syncing atomic.Bool
	wake    chan struct{}

	// Auto-sync lifecycle
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	// Reconnect debounce; armed only while auto-sync runs
	debounceMu sync.Mutex
	debounce   *time.Timer
	armed      bool
}

// NewCoordinator wires the coordinator to its collaborators. A nil config uses
// DefaultConfig() and a nil logger falls back to slog.Default().
func NewCoordinator(queue AnswerQueue, conn Connectivity, submitter Submitter, config *Config, logger *slog.Logger) (*Coordinator, error) {
	if queue == nil {
		return nil, fmt.Errorf("answer queue cannot be nil")
	}
	if conn == nil {
		return nil, fmt.Errorf("connectivity cannot be nil")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts <= 0 {
		return nil, fmt.Errorf("config.MaxAttempts must be positive, got %d", config.MaxAttempts)
	}
	if config.SyncInterval <= 0 {
		return nil, fmt.Errorf("config.SyncInterval must be positive, got %s", config.SyncInterval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		queue:     queue,
		conn:      conn,
		submitter: submitter,
		config:    config,
		logger:    logger,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}, nil
}

// SyncPendingAnswers runs one cycle over every unsynced answer set in FIFO order.
// It returns at once if another cycle is running or the device is offline.
func (c *Coordinator) SyncPendingAnswers(ctx context.Context) Result {
	if !c.syncing.CompareAndSwap(false, true) {
		return Result{Outcome: OutcomeAlreadyRunning, Errors: []string{MsgAlreadyRunning}}
	}
	defer c.syncing.Store(false)

	start := c.cycleStart()

	if !c.conn.ConnectionStatus() {
		res := Result{Outcome: OutcomeNoConnection, Errors: []string{MsgNoConnection}}
		c.observeCycle(ctx, start, 0, res)
		return res
	}

	sets := c.queue.UnsyncedAnswerSets(ctx)
	c.logger.Debug("Sync cycle started", "pending", len(sets))

	res := Result{Outcome: OutcomeCompleted, Errors: []string{}}
	attempted := 0
	for _, set := range sets {
		if set.SyncAttempts >= c.config.MaxAttempts {
			res.Failed++
			res.Abandoned++
			res.Errors = append(res.Errors, fmt.Sprintf("answer set %s (quiz %s) abandoned after %d attempts",
				set.ID, set.QuizID, set.SyncAttempts))
			continue
		}

		attempted++
		if err := c.submitter.SubmitAnswers(ctx, set); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("answer set %s (quiz %s): %v", set.ID, set.QuizID, err))
			c.logger.Warn("Failed to submit answer set",
				"answer_set_id", set.ID,
				"quiz_id", set.QuizID,
				"attempt", set.SyncAttempts+1,
				"error", err,
			)
			if err := c.queue.IncrementAttempts(ctx, set.ID); err != nil {
				c.logger.Error("Failed to record sync attempt", "answer_set_id", set.ID, "error", err)
			}
			continue
		}

		res.Synced++
		if err := c.queue.MarkSynced(ctx, set.ID); err != nil {
			// The server dedups by submission ID, so the set is simply resent next cycle
			c.logger.Error("Failed to mark answer set synced", "answer_set_id", set.ID, "error", err)
		}
	}

	if removed, err := c.queue.PruneSynced(ctx); err != nil {
		c.logger.Error("Failed to prune synced answer sets", "error", err)
	} else if removed > 0 {
		c.logger.Debug("Pruned synced answer sets", "removed", removed)
	}
	if err := c.queue.SetLastSyncTime(ctx, c.now()); err != nil {
		c.logger.Error("Failed to record last sync time", "error", err)
	}

	res.Success = res.Failed == 0
	c.logger.Info("Sync cycle finished",
		"synced", res.Synced,
		"failed", res.Failed,
		"abandoned", res.Abandoned,
	)
	c.observeCycle(ctx, start, attempted, res)
	return res
}

// ForceSyncNow waits up to Config.ForceSyncTimeout for connectivity and then runs a cycle
func (c *Coordinator) ForceSyncNow(ctx context.Context) Result {
	if !c.conn.WaitForConnection(ctx, c.config.ForceSyncTimeout) {
		c.logger.Info("Forced sync skipped, still offline", "waited", c.config.ForceSyncTimeout)
		return Result{Outcome: OutcomeNoConnection, Errors: []string{MsgNoConnection}}
	}
	return c.SyncPendingAnswers(ctx)
}

// IsSyncing reports whether a cycle is in flight
func (c *Coordinator) IsSyncing() bool {
	return c.syncing.Load()
}

// SyncStatus returns a snapshot for the sync banner
func (c *Coordinator) SyncStatus(ctx context.Context) Status {
	st := Status{
		IsSyncing: c.syncing.Load(),
		IsOnline:  c.conn.ConnectionStatus(),
	}
	for _, set := range c.queue.UnsyncedAnswerSets(ctx) {
		st.PendingCount++
		if set.Status(c.config.MaxAttempts) == localstore.StatusAbandoned {
			st.AbandonedCount++
		}
	}
	if t, ok := c.queue.LastSyncTime(ctx); ok {
		st.LastSyncTime = t
	}
	return st
}

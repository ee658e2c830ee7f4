// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"context"
	"time"
)

// StartAutoSync runs cycles on a ticker, after reconnects (debounced by
// Config.ReconnectDelay) and on TriggerSync. Calling it twice is a no-op.
func (c *Coordinator) StartAutoSync(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	c.logger.Info("Starting auto sync", "interval", c.config.SyncInterval, "reconnect_delay", c.config.ReconnectDelay)

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setReconnectArmed(true)
	c.unsubscribe = c.conn.AddListener(c.onConnectivityChange)
	c.running = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(loopCtx)
	}()

	if c.conn.ConnectionStatus() {
		c.TriggerSync()
	}
}

// StopAutoSync stops scheduling cycles and waits for an in-flight cycle to finish
func (c *Coordinator) StopAutoSync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	c.logger.Info("Stopping auto sync")

	c.unsubscribe()
	// A notification already in flight may still reach onConnectivityChange
	c.setReconnectArmed(false)
	c.cancel()
	c.wg.Wait()

	c.running = false
	c.cancel = nil
	c.unsubscribe = nil

	// Drop a wake left over from the stopped loop
	select {
	case <-c.wake:
	default:
	}
}

// IsAutoSyncRunning reports whether the auto-sync loop is active
func (c *Coordinator) IsAutoSyncRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// TriggerSync asks the auto-sync loop for a cycle. Triggers coalesce while one is pending.
func (c *Coordinator) TriggerSync() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) run(ctx context.Context) {
	c.logger.Debug("Auto sync loop started")
	defer c.logger.Debug("Auto sync loop stopped")

	ticker := time.NewTicker(c.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx)
		case <-c.wake:
			c.runOnce(ctx)
		}
	}
}

// runOnce runs a cycle that outlives cancellation of the loop
func (c *Coordinator) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := c.SyncPendingAnswers(context.WithoutCancel(ctx))
	if res.Outcome != OutcomeCompleted {
		c.logger.Debug("Auto sync cycle skipped", "outcome", string(res.Outcome))
	}
}

func (c *Coordinator) onConnectivityChange(connected bool) {
	if !connected {
		c.cancelDebounce()
		return
	}

	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	if !c.armed {
		return
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.config.ReconnectDelay, func() {
		c.debounceMu.Lock()
		defer c.debounceMu.Unlock()
		if !c.armed {
			return
		}
		c.logger.Debug("Reconnected, triggering sync")
		c.TriggerSync()
	})
}

func (c *Coordinator) cancelDebounce() {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

// setReconnectArmed enables or disables reconnect triggers. Disarming also drops a pending one.
func (c *Coordinator) setReconnectArmed(armed bool) {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	c.armed = armed
	if !armed && c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Monitor holds the device's connectivity state. Raw events arrive through Update, Watch
// or Run; listeners only hear about real transitions.
type Monitor struct {
	prober      Prober
	logger      *slog.Logger
	broadcaster *Broadcaster

	// Held across a state change and its notification so listeners hear
	// transitions in the order they were applied. Listeners must not call Update.
	notifyMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// NewMonitor creates a monitor in StateUnknown. prober may be nil, in which case
// CheckConnection reports the last known state.
func NewMonitor(prober Prober, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		prober:      prober,
		logger:      logger,
		broadcaster: NewBroadcaster(logger),
		state:       StateUnknown,
	}
}

// CheckConnection actively probes the network and updates the state.
// Probe errors count as disconnected.
func (m *Monitor) CheckConnection(ctx context.Context) bool {
	if m.prober == nil {
		return m.ConnectionStatus()
	}

	connected, err := m.prober.Probe(ctx)
	if err != nil {
		m.logger.Debug("Connectivity probe failed", "error", err)
		connected = false
	}
	m.Update(connected)
	return connected
}

// ConnectionStatus returns the last known state without probing
func (m *Monitor) ConnectionStatus() bool {
	return m.State() == StateConnected
}

// State returns the last known connectivity state
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// AddListener registers fn for connectivity transitions and returns its unsubscribe function.
// fn runs on the goroutine that applied the transition and must not call Update.
func (m *Monitor) AddListener(fn Listener) func() {
	return m.broadcaster.Add(fn)
}

// ListenerCount returns how many listeners are registered
func (m *Monitor) ListenerCount() int {
	return m.broadcaster.Len()
}

// Update feeds one raw connectivity event. Repeats of the current state are dropped.
func (m *Monitor) Update(connected bool) {
	next := stateOf(connected)

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()

	m.logger.Info("Connectivity changed", "from", prev.String(), "to", next.String())
	m.broadcaster.Notify(connected)
}

// Watch consumes raw events until ctx is done or events is closed
func (m *Monitor) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case connected, ok := <-events:
			if !ok {
				return
			}
			m.Update(connected)
		}
	}
}

// Run probes immediately and then every interval until ctx is done
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	m.logger.Debug("Connectivity probe loop started", "interval", interval)
	defer m.logger.Debug("Connectivity probe loop stopped")

	m.CheckConnection(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckConnection(ctx)
		}
	}
}

// WaitForConnection returns true as soon as the device is connected, or false when
// timeout elapses or ctx is done. The listener it registers is always removed.
func (m *Monitor) WaitForConnection(ctx context.Context, timeout time.Duration) bool {
	connectedCh := make(chan struct{}, 1)
	unsubscribe := m.AddListener(func(connected bool) {
		if !connected {
			return
		}
		select {
		case connectedCh <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Checked after subscribing so a transition in between is not missed
	if m.ConnectionStatus() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-connectedCh:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

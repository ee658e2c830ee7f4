// Package netmon tracks device connectivity and fans out transitions to listeners.
//
// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package netmon

// State is the last known connectivity of the device
type State int

const (
	StateUnknown State = iota
	StateConnected
	StateDisconnected
)

// String returns "unknown", "connected" or "disconnected"
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

func stateOf(connected bool) State {
	if connected {
		return StateConnected
	}
	return StateDisconnected
}

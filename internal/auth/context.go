// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
)

type contextKey string

const (
	participantIDKey contextKey = "participant_id"
	deviceIDKey      contextKey = "device_id"
)

// Identity is the authenticated caller of a request
type Identity struct {
	ParticipantID string
	DeviceID      string
}

// WithIdentity stores the participant and device in ctx
func WithIdentity(ctx context.Context, participantID, deviceID string) context.Context {
	ctx = context.WithValue(ctx, participantIDKey, participantID)
	ctx = context.WithValue(ctx, deviceIDKey, deviceID)
	return ctx
}

// GetParticipantID retrieves the participant ID from the context
func GetParticipantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(participantIDKey).(string)
	return id, ok && id != ""
}

// GetDeviceID retrieves the device ID from the context
func GetDeviceID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok && id != ""
}

// FromContext returns the identity if both parts are present
func FromContext(ctx context.Context) (Identity, bool) {
	pid, ok1 := GetParticipantID(ctx)
	did, ok2 := GetDeviceID(ctx)
	if !ok1 || !ok2 {
		return Identity{}, false
	}
	return Identity{ParticipantID: pid, DeviceID: did}, true
}

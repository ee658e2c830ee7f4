package auth

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "participant-1", "device-1")

	id, ok := FromContext(ctx)
	if !ok {
		t.Fatalf("expected identity in context")
	}
	if id.ParticipantID != "participant-1" || id.DeviceID != "device-1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIdentityMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no identity")
	}
	if _, ok := FromContext(WithIdentity(context.Background(), "participant-1", "")); ok {
		t.Fatalf("identity without device must not be returned")
	}
}

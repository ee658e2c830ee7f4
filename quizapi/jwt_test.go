package quizapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mobiletoly/go-quizsync/internal/auth"
)

func TestJWTAuth_GenerateAndValidate(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	token, err := jwtAuth.GenerateToken("participant-123", "device-456", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := jwtAuth.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate generated token: %v", err)
	}
	if claims.DeviceID != "device-456" {
		t.Errorf("Expected device_id device-456, got %s", claims.DeviceID)
	}
	if claims.Subject != "participant-123" {
		t.Errorf("Expected subject participant-123, got %s", claims.Subject)
	}
	if claims.Issuer != "go-quizsync" {
		t.Errorf("Expected issuer 'go-quizsync', got %s", claims.Issuer)
	}
	if diff := claims.ExpiresAt.Time.Sub(time.Now().Add(time.Hour)).Abs(); diff > time.Second {
		t.Errorf("Token expiry differs by %v", diff)
	}
}

func TestJWTAuth_ValidateToken_Rejects(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	otherSecret, err := NewJWTAuth("secret-2").GenerateToken("p", "d", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	expired, err := jwtAuth.GenerateToken("p", "d", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	noDevice, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   "p",
		},
	}).SignedString(jwtAuth.secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		DeviceID: "d",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwtAuth.secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"invalid format", "not.a.jwt"},
		{"other secret", otherSecret},
		{"expired", expired},
		{"missing did", noDevice},
		{"missing sub", noSubject},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := jwtAuth.ValidateToken(tc.token); err == nil {
				t.Errorf("Expected validation to fail for %s", tc.name)
			}
		})
	}
}

func TestJWTAuth_Middleware(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	token, err := jwtAuth.GenerateToken("participant-1", "device-1", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	var seen auth.Identity
	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	testCases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quiz/quizzes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, rec.Code)
			}
		})
	}

	if seen.ParticipantID != "participant-1" || seen.DeviceID != "device-1" {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}

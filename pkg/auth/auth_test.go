package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	authenticator := NewJWTAuthenticator(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"id":   "665f1b2e8f1a4c0012345678",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	identity, err := authenticator.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "665f1b2e8f1a4c0012345678" {
		t.Errorf("unexpected user id: %s", identity.UserID)
	}
	if identity.Role != RoleAdmin {
		t.Errorf("unexpected role: %s", identity.Role)
	}
}

func TestVerify_DefaultsRoleToUser(t *testing.T) {
	authenticator := NewJWTAuthenticator(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"id":  "665f1b2e8f1a4c0012345678",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := authenticator.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.Role != RoleUser {
		t.Errorf("expected default role %q, got %q", RoleUser, identity.Role)
	}
}

func TestVerify_Rejections(t *testing.T) {
	authenticator := NewJWTAuthenticator(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not-a-token"},
		{
			name: "wrong secret",
			token: signToken(t, "other-secret", jwt.MapClaims{
				"id":  "665f1b2e8f1a4c0012345678",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired token",
			token: signToken(t, testSecret, jwt.MapClaims{
				"id":  "665f1b2e8f1a4c0012345678",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "missing subject",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := authenticator.Verify(tt.token); err == nil {
				t.Errorf("expected verification to fail")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: RoleAdmin})
	if _, err := RequireAdmin(ctx); err != nil {
		t.Errorf("admin should pass: %v", err)
	}

	ctx = WithIdentity(context.Background(), Identity{UserID: "u2", Role: RoleUser})
	if _, err := RequireAdmin(ctx); err == nil {
		t.Errorf("plain user should be rejected")
	}

	if _, err := RequireAdmin(context.Background()); err == nil {
		t.Errorf("missing identity should be rejected")
	}
}

package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "eventms/pkg/errors"
	httputil "eventms/pkg/http"
	"eventms/pkg/logger"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware verifies the Bearer token on every request and injects the
// caller's Identity into the request context. Requests without a valid token
// are rejected before reaching any handler.
func Middleware(authenticator Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if err := httputil.WriteError(w, apperrors.Unauthorized("No token, authorization denied")); err != nil {
					log.Error("failed to write error response", "middleware", "auth", "error", err)
				}
				return
			}

			identity, err := authenticator.Verify(token)
			if err != nil {
				log.Warn("Token verification failed", "path", r.URL.Path, "error", err)
				if writeErr := httputil.WriteError(w, err); writeErr != nil {
					log.Error("failed to write error response", "middleware", "auth", "error", writeErr)
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// FromContext returns the verified identity injected by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// WithIdentity is a test helper for building contexts with a known caller.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// RequireAdmin extracts the caller and fails with Forbidden unless the
// caller's role is admin.
func RequireAdmin(ctx context.Context) (Identity, error) {
	identity, ok := FromContext(ctx)
	if !ok {
		return Identity{}, apperrors.Unauthorized("No token, authorization denied")
	}
	if identity.Role != RoleAdmin {
		return Identity{}, apperrors.Forbidden("Access denied. Admin only.")
	}
	return identity, nil
}

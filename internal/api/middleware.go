package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tripplanner/internal/models"
	"tripplanner/internal/ratelimit"
	"tripplanner/internal/storage"

	"github.com/gorilla/mux"
)

type userContextKey struct{}

// ContextWithUser returns a copy of ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user set by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey{}).(*models.User)
	return user
}

// authMiddleware resolves "Authorization: Bearer <token>" to a user through
// the SHA-256 hash of the token. Requests without a valid token get a 401.
func authMiddleware(store storage.Storage) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Authorization required")
				return
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				writeJSONError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Invalid authorization format")
				return
			}

			token := strings.TrimSpace(authHeader[len(prefix):])
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Invalid access token")
				return
			}

			user, err := store.GetUserByTokenHash(r.Context(), models.HashToken(token))
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					slog.Error("Token lookup failed", "error", err)
					writeJSONError(w, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Authentication is temporarily unavailable")
					return
				}
				slog.Warn("Rejected access token",
					"event", "security_audit",
					"client_ip", clientIP(r),
					"path", r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// demoUserMiddleware runs every request as user. It is used when
// authentication is disabled.
func demoUserMiddleware(user *models.User) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "No demo user configured")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// clientIP returns the caller address used for audit logs, preferring the
// proxy headers the rate limiter keys on.
func clientIP(r *http.Request) string {
	if key := ratelimit.ClientKey(r.Header); key != ratelimit.UnknownKey {
		return key
	}
	return r.RemoteAddr
}

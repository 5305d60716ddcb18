// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/wardvote/auth"
)

type contextKey string

var claimsContextKey = contextKey("session_claims")

// RequireRole admits requests carrying a valid bearer session token for one
// of the given roles and stores its claims in the request context
func RequireRole(secret string, roles []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			ErrorResponse(w, http.StatusUnauthorized, "missing session token")
			return
		}

		claims, err := auth.ParseSessionToken(secret, strings.TrimSpace(raw))
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			slog.Warn("role denied", "user_id", claims.Subject, "role", claims.Role, "path", r.URL.Path)
			ErrorResponse(w, http.StatusForbidden, "insufficient role")
			return
		}

		next(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	}
}

// ClaimsFromContext returns the session claims stored by RequireRole
func ClaimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.SessionClaims)
	return claims, ok && claims != nil
}

func ContextWithClaims(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# CORS and Recovery

	server := http.Server{
		Handler: middleware.Recover(middleware.CORS(cfg.CORSOrigin, mux)),
	}

An empty origin reflects the caller. Allowed headers are Content-Type,
Authorization and X-Ballot-Token.

# Sessions

RequireRole checks the Bearer session token and the caller's role:

	mux.HandleFunc("GET /admin/results", middleware.RequireRole(secret, []string{models.RoleAdmin}, h))

Handlers read the claims back with ClaimsFromContext.

# Rate Limiting

RateLimiter keeps a token bucket per hashed client IP:

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.TokenSalt)
	mux.HandleFunc("POST /auth/login", limiter.Limit(h))

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, r, err) // maps models.Error kinds to status codes

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the wardvote API.

# Route Registration

NewRouter creates a configured http.ServeMux over an assembled app:

	mux := router.NewRouter(a)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Login (rate limited):

	POST   /auth/login
	POST   /auth/login/{flow}/otp
	POST   /auth/login/{flow}/resend
	DELETE /auth/login/{flow}

Registration (public, rate limited):

	POST /voters

Verification (verifier session required):

	POST   /verify
	POST   /verify/{flow}/otp
	POST   /verify/{flow}/resend
	DELETE /verify/{flow}

Booth (ballot token required, except /booth):

	GET  /booth
	GET  /ballot
	POST /ballot

Admin dashboard (admin session required):

	GET /admin/results
	GET /admin/results.csv
	GET|POST /admin/candidates, PUT|DELETE /admin/candidates/{id}
	GET|POST /admin/wards, PUT|DELETE /admin/wards/{number}

Election:

	GET /election
*/
package router

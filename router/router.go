// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/wardvote/app"
	"github.com/danielhkuo/wardvote/handlers"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
)

func NewRouter(a *app.App) *http.ServeMux {
	mux := http.NewServeMux()
	cfg := a.Config

	authHandler := handlers.NewAuthHandler(a.Login)
	voterHandler := handlers.NewVoterHandler(a.Roll, a.Verifier)
	ballotHandler := handlers.NewBallotHandler(a.Recorder, a.Tokens)
	adminHandler := handlers.NewAdminHandler(a.Directory, a.Store, a.Roll)
	electionHandler := handlers.NewElectionHandler(a.Watcher)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.TokenSalt)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireRole(cfg.SessionSecret, []string{models.RoleAdmin}, h))
	}
	desk := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(limiter.Limit(middleware.RequireRole(cfg.SessionSecret, []string{models.RoleVerifier}, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(a.Registry))

	mux.HandleFunc("GET /election", middleware.WithLogging(electionHandler.GetElection))

	// Role login
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(limiter.Limit(authHandler.Login)))
	mux.HandleFunc("POST /auth/login/{flow}/otp", middleware.WithLogging(limiter.Limit(authHandler.SubmitCode)))
	mux.HandleFunc("POST /auth/login/{flow}/resend", middleware.WithLogging(limiter.Limit(authHandler.Resend)))
	mux.HandleFunc("DELETE /auth/login/{flow}", middleware.WithLogging(authHandler.Abandon))

	// Registration and verification
	mux.HandleFunc("POST /voters", middleware.WithLogging(limiter.Limit(voterHandler.Register)))
	mux.HandleFunc("POST /verify", desk(voterHandler.Verify))
	mux.HandleFunc("POST /verify/{flow}/otp", desk(voterHandler.SubmitCode))
	mux.HandleFunc("POST /verify/{flow}/resend", desk(voterHandler.Resend))
	mux.HandleFunc("DELETE /verify/{flow}", desk(voterHandler.Abandon))

	// Booth
	mux.HandleFunc("GET /booth", middleware.WithLogging(ballotHandler.Booth))
	mux.HandleFunc("GET /ballot", middleware.WithLogging(ballotHandler.GetBallot))
	mux.HandleFunc("POST /ballot", middleware.WithLogging(ballotHandler.CastVote))

	// Admin dashboard
	mux.HandleFunc("GET /admin/results", admin(adminHandler.Results))
	mux.HandleFunc("GET /admin/results.csv", admin(adminHandler.ResultsCSV))
	mux.HandleFunc("GET /admin/candidates", admin(adminHandler.ListCandidates))
	mux.HandleFunc("POST /admin/candidates", admin(adminHandler.CreateCandidate))
	mux.HandleFunc("PUT /admin/candidates/{id}", admin(adminHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /admin/candidates/{id}", admin(adminHandler.DeleteCandidate))
	mux.HandleFunc("GET /admin/wards", admin(adminHandler.ListWards))
	mux.HandleFunc("POST /admin/wards", admin(adminHandler.CreateWard))
	mux.HandleFunc("PUT /admin/wards/{number}", admin(adminHandler.UpdateWard))
	mux.HandleFunc("DELETE /admin/wards/{number}", admin(adminHandler.DeleteWard))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wardvote API v1"))
	})

	return mux
}

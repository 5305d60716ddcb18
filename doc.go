// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the wardvote API server.

wardvote runs a single ward-level election: admins and verifiers sign in
with a password and a one-time code, verifiers check voters in at the desk,
and each verified voter casts one ballot for a candidate of their ward or
for NOTA.

# Starting the Server

	DATABASE_URL=wardvote.db SESSION_SECRET=... TOKEN_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first; variables already set
in the environment win.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): session token signing key
  - TOKEN_SALT (--token-salt): salt for hashing client IPs

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SEED_DIR (--seed): directory of seed JSON files (default: bundled)
  - ENFORCE_SINGLE_VOTE (--single-vote): default true
  - SESSION_TTL, CHALLENGE_COOLDOWN, CHALLENGE_TTL, CHALLENGE_MAX_ATTEMPTS
  - RATE_LIMIT_PER_MINUTE, CORS_ORIGIN, LOG_LEVEL

# Architecture

  - app: wires the components below
  - login, verifier: the two code-confirmed flows, on top of challenge
  - ballot: ballot tokens, choices and vote recording
  - registration: the voter roll
  - directory, seed: users, wards, candidates and the election
  - election: watches the end time
  - results: shares and CSV export
  - db, store: persistence
  - handlers, router, middleware: HTTP
  - metrics: Prometheus counters
*/
package main

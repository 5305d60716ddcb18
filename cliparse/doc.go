// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values come from the environment first (parsed with caarlos0/env), then CLI
flags override them. LoadDotEnv can be called beforehand to populate the
environment from a .env file.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - SeedDir: Directory of seed JSON files (default: bundled data)
  - SessionSecret: HS256 key for session tokens (required)
  - TokenSalt: Secret for IP hashing (required)
  - SessionTTL: Session token lifetime (default: 8h)
  - ChallengeCooldown: Wait before a code can be resent (default: 60s)
  - ChallengeTTL: Code lifetime (default: 5m)
  - ChallengeMaxAttempts: Wrong codes before the flow resets (default: 5)
  - EnforceSingleVote: Reject a second ballot per voter (default: true)
  - RateLimitPerMinute: Login/verify requests per client IP (default: 30)
  - LogLevel: debug, info, warn or error (default: info)
  - CORSOrigin: Allowed origin (default: echo the request origin)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-seed            Seed directory
	-session-secret  Session signing secret
	-token-salt      IP hashing salt
	-single-vote     Enforce one ballot per voter
	-log-level       Log level

# Environment Variables

	PORT, DATABASE_URL, DATABASE_TYPE, SEED_DIR, SESSION_SECRET, TOKEN_SALT,
	SESSION_TTL, CHALLENGE_COOLDOWN, CHALLENGE_TTL, CHALLENGE_MAX_ATTEMPTS,
	ENFORCE_SINGLE_VOTE, RATE_LIMIT_PER_MINUTE, LOG_LEVEL, CORS_ORIGIN

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - SESSION_SECRET must be provided
  - TOKEN_SALT must be provided
*/
package cliparse

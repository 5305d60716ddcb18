package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	SeedDir      string `env:"SEED_DIR"`

	SessionSecret string        `env:"SESSION_SECRET"`
	TokenSalt     string        `env:"TOKEN_SALT"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	ChallengeCooldown    time.Duration `env:"CHALLENGE_COOLDOWN" envDefault:"60s"`
	ChallengeTTL         time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	ChallengeMaxAttempts int           `env:"CHALLENGE_MAX_ATTEMPTS" envDefault:"5"`

	EnforceSingleVote  bool   `env:"ENFORCE_SINGLE_VOTE" envDefault:"true"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigin         string `env:"CORS_ORIGIN"`
}

// LoadDotEnv loads variables from a .env file if one exists.
// Variables already set in the environment are not overridden.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags reads the environment and then applies CLI overrides
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("wardvote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.SeedDir, "seed", cfg.SeedDir, "Directory of seed JSON files (default: bundled)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Session token signing secret (prefer env)")
	fs.StringVar(&cfg.TokenSalt, "token-salt", cfg.TokenSalt, "IP hashing salt (prefer env)")

	fs.BoolVar(&cfg.EnforceSingleVote, "single-vote", cfg.EnforceSingleVote, "Reject a second ballot from the same voter")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q (want sqlite or postgres)", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}
	if cfg.TokenSalt == "" {
		return Config{}, errors.New("TOKEN_SALT required")
	}

	if cfg.SessionTTL <= 0 || cfg.ChallengeTTL <= 0 {
		return Config{}, errors.New("SESSION_TTL and CHALLENGE_TTL must be positive")
	}
	if cfg.ChallengeCooldown < 0 || cfg.ChallengeMaxAttempts < 0 || cfg.RateLimitPerMinute < 0 {
		return Config{}, errors.New("challenge and rate limit settings must not be negative")
	}

	return cfg, nil
}

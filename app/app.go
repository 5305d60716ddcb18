// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package app assembles the voting components from configuration, seed data
// and an open database.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/wardvote/ballot"
	"github.com/danielhkuo/wardvote/challenge"
	"github.com/danielhkuo/wardvote/cliparse"
	"github.com/danielhkuo/wardvote/db"
	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/election"
	"github.com/danielhkuo/wardvote/login"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/registration"
	"github.com/danielhkuo/wardvote/schedule"
	"github.com/danielhkuo/wardvote/seed"
	"github.com/danielhkuo/wardvote/verifier"
	"github.com/prometheus/client_golang/prometheus"
)

// Options overrides the process-wide defaults, mainly for tests
type Options struct {
	Scheduler schedule.Scheduler
	Sender    challenge.Sender
	Registry  *prometheus.Registry
}

type App struct {
	Config    cliparse.Config
	Directory *directory.Directory
	Store     *db.Store
	Roll      *registration.Roll
	Login     *login.Authenticator
	Verifier  *verifier.Verifier
	Recorder  *ballot.Recorder
	Tokens    *ballot.Tokens
	Watcher   *election.Watcher
	Metrics   *metrics.Collector
	Registry  *prometheus.Registry
}

// New builds the directory, prepares the tally and wires every component.
// The election watcher is created but not started.
func New(ctx context.Context, cfg cliparse.Config, data seed.Data, conn *sql.DB, opts Options) (*App, error) {
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real{}
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	dir, err := directory.New(data)
	if err != nil {
		return nil, fmt.Errorf("invalid seed data: %w", err)
	}

	st := db.NewStore(conn, cfg.DatabaseType)
	if err := ballot.InitTally(ctx, st, dir, data.Results); err != nil {
		return nil, fmt.Errorf("failed to initialize tally: %w", err)
	}

	collector := metrics.NewCollector(reg)
	watcher := election.NewWatcher(dir.Election(), sched)
	watcher.OnEnd(func(e models.Election) {
		slog.Info("voting closed", "election", e.Name)
	})

	challengeCfg := challenge.Config{
		Cooldown:    cfg.ChallengeCooldown,
		TTL:         cfg.ChallengeTTL,
		MaxAttempts: cfg.ChallengeMaxAttempts,
	}

	roll := registration.NewRoll(st, dir, collector)
	tokens := ballot.NewTokens(ballot.DefaultTokenTTL, sched)
	recorder := ballot.NewRecorder(st, st, dir, watcher, roll, cfg.EnforceSingleVote, collector)
	var checker verifier.VoteChecker
	if cfg.EnforceSingleVote {
		checker = recorder
	}

	return &App{
		Config:    cfg,
		Directory: dir,
		Store:     st,
		Roll:      roll,
		Login:     login.NewAuthenticator(dir, challengeCfg, sched, opts.Sender, cfg.SessionSecret, cfg.SessionTTL, collector),
		Verifier:  verifier.NewVerifier(dir, roll, st, tokens, checker, challengeCfg, sched, opts.Sender, collector),
		Recorder:  recorder,
		Tokens:    tokens,
		Watcher:   watcher,
		Metrics:   collector,
		Registry:  reg,
	}, nil
}

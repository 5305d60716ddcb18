// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"sync"
	"time"

	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
)

// DefaultTokenTTL bounds how long a verified voter may take to vote
const DefaultTokenTTL = 15 * time.Minute

type tokenEntry struct {
	wc        models.WardContext
	expiresAt time.Time
}

// Tokens holds one-shot ballot tokens issued after verification. Each token
// is bound to one voter and ward; issuing a new token for a voter revokes the
// previous one.
type Tokens struct {
	mu      sync.Mutex
	entries map[string]tokenEntry
	byVoter map[string]string
	ttl     time.Duration
	clock   schedule.Scheduler
}

func NewTokens(ttl time.Duration, clock schedule.Scheduler) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = schedule.Real{}
	}
	return &Tokens{
		entries: make(map[string]tokenEntry),
		byVoter: make(map[string]string),
		ttl:     ttl,
		clock:   clock,
	}
}

// Issue mints a token for the ward context
func (t *Tokens) Issue(wc models.WardContext) (string, time.Time, error) {
	token, err := auth.GenerateBallotToken()
	if err != nil {
		return "", time.Time{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	if old, ok := t.byVoter[wc.VoterID]; ok && wc.VoterID != "" {
		delete(t.entries, old)
	}
	expiresAt := t.clock.Now().Add(t.ttl)
	t.entries[token] = tokenEntry{wc: wc, expiresAt: expiresAt}
	if wc.VoterID != "" {
		t.byVoter[wc.VoterID] = token
	}
	return token, expiresAt, nil
}

// Lookup returns the ward context bound to a live token
func (t *Tokens) Lookup(token string) (models.WardContext, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok {
		return models.WardContext{}, models.AuthError("invalid ballot token")
	}
	if !t.clock.Now().Before(e.expiresAt) {
		t.removeLocked(token, e)
		return models.WardContext{}, models.AuthError("ballot token expired")
	}
	return e.wc, nil
}

// Claim takes a live token out of circulation and returns its ward context.
// Only one caller can claim a token. If the ballot is not recorded, release
// puts the token back unless a newer token was issued to the same voter.
func (t *Tokens) Claim(token string) (models.WardContext, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[token]
	if !ok {
		return models.WardContext{}, nil, models.AuthError("invalid ballot token")
	}
	t.removeLocked(token, e)
	if !t.clock.Now().Before(e.expiresAt) {
		return models.WardContext{}, nil, models.AuthError("ballot token expired")
	}

	release := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if e.wc.VoterID != "" {
			if _, newer := t.byVoter[e.wc.VoterID]; newer {
				return
			}
			t.byVoter[e.wc.VoterID] = token
		}
		t.entries[token] = e
	}
	return e.wc, release, nil
}

// Len returns the number of live tokens
func (t *Tokens) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
	return len(t.entries)
}

func (t *Tokens) removeLocked(token string, e tokenEntry) {
	delete(t.entries, token)
	if t.byVoter[e.wc.VoterID] == token {
		delete(t.byVoter, e.wc.VoterID)
	}
}

func (t *Tokens) sweepLocked() {
	now := t.clock.Now()
	for token, e := range t.entries {
		if !now.Before(e.expiresAt) {
			t.removeLocked(token, e)
		}
	}
}

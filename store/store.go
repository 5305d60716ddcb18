// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store defines the persistence contracts shared by the workflow
// packages and an in-memory key-value implementation.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/danielhkuo/wardvote/models"
)

// Named key-value entries
const (
	KeyVoters     = "voters"
	KeyWardNumber = "ward_number"
)

// ErrAlreadyVoted is returned when a voter already has a ballot in the election
var ErrAlreadyVoted = errors.New("voter has already voted")

// KV persists opaque values under string keys
type KV interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Ballot is a recorded vote
type Ballot struct {
	ID          string
	Election    string
	VoterID     string
	WardNumber  int
	CandidateID string
}

// Tally stores per-ward vote counts
type Tally interface {
	// Tally returns every ward's rows in insertion order
	Tally(ctx context.Context) (models.Tally, error)
	// WardTally returns one ward's rows
	WardTally(ctx context.Context, ward int) ([]models.TallyEntry, error)
	// EnsureEntry inserts a zero row when the candidate has none
	EnsureEntry(ctx context.Context, ward int, entry models.TallyEntry) error
	// SetVotes overwrites a row's count, for seeding
	SetVotes(ctx context.Context, ward int, candidateID string, votes int) error
	// DeleteEntry removes a row
	DeleteEntry(ctx context.Context, ward int, candidateID string) error
	// RecordBallot increments the chosen row by one and stores the ballot in
	// a single transaction. When enforceSingle is set and the voter already
	// has a ballot for the election, ErrAlreadyVoted is returned and nothing
	// changes.
	RecordBallot(ctx context.Context, b Ballot, enforceSingle bool) error
	// HasVoted reports whether the voter has a ballot for the election
	HasVoted(ctx context.Context, election, voterID string) (bool, error)
}

// Memory is a KV held in process memory
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Save(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

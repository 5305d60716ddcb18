// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/seed"
	"github.com/danielhkuo/wardvote/store"
	"github.com/google/uuid"
)

// Roll is the voter list. It lives in the `voters` key-value entry as a JSON
// array; until the first registration the bundled seed list is used.
type Roll struct {
	mu      sync.Mutex
	kv      store.KV
	dir     *directory.Directory
	metrics metrics.Recorder
}

func NewRoll(kv store.KV, dir *directory.Directory, m metrics.Recorder) *Roll {
	return &Roll{kv: kv, dir: dir, metrics: metrics.OrNop(m)}
}

// Voters returns the persisted list, or the seed list when nothing has been
// persisted yet
func (r *Roll) Voters(ctx context.Context) ([]models.Voter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

// Register validates the form and appends a new voter. National-id and
// voter-id numbers must each be unique; on conflict nothing is written.
func (r *Roll) Register(ctx context.Context, req models.RegisterVoterRequest) (models.Voter, error) {
	v, err := r.validate(req)
	if err != nil {
		r.metrics.RecordRegistration(metrics.OutcomeInvalid)
		return models.Voter{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	voters, err := r.loadLocked(ctx)
	if err != nil {
		return models.Voter{}, err
	}

	for _, existing := range voters {
		if existing.NationalID == v.NationalID {
			r.metrics.RecordRegistration(metrics.OutcomeConflict)
			return models.Voter{}, models.ConflictError("a voter with this national id is already registered")
		}
		if existing.VoterID == v.VoterID {
			r.metrics.RecordRegistration(metrics.OutcomeConflict)
			return models.Voter{}, models.ConflictError("a voter with this voter id is already registered")
		}
	}

	v.ID = uuid.NewString()
	voters = append(voters, v)

	raw, err := json.Marshal(voters)
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to encode voters: %w", err)
	}
	if err := r.kv.Save(ctx, store.KeyVoters, raw); err != nil {
		return models.Voter{}, err
	}

	r.metrics.RecordRegistration(metrics.OutcomeCreated)
	slog.InfoContext(ctx, "voter registered", "voter_id", v.ID, "ward", v.WardNumber)
	return v, nil
}

// Count returns the number of voters in a ward
func (r *Roll) Count(ctx context.Context, ward int) (int, error) {
	voters, err := r.Voters(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range voters {
		if v.WardNumber == ward {
			n++
		}
	}
	return n, nil
}

func (r *Roll) loadLocked(ctx context.Context) ([]models.Voter, error) {
	raw, ok, err := r.kv.Load(ctx, store.KeyVoters)
	if err != nil {
		return nil, err
	}
	if !ok {
		return r.dir.SeedVoters(), nil
	}
	voters, err := seed.ParseVoters(raw)
	if err != nil {
		return nil, fmt.Errorf("stored voter list is corrupt: %w", err)
	}
	return voters, nil
}

func (r *Roll) validate(req models.RegisterVoterRequest) (models.Voter, error) {
	v := models.Voter{
		FullName:   strings.TrimSpace(req.FullName),
		NationalID: strings.TrimSpace(req.NationalID),
		VoterID:    strings.TrimSpace(req.VoterID),
		Phone:      strings.TrimSpace(req.Phone),
	}

	switch {
	case v.FullName == "":
		return v, models.ValidationError("full_name is required")
	case v.NationalID == "":
		return v, models.ValidationError("aadhar_number is required")
	case v.VoterID == "":
		return v, models.ValidationError("voter_id is required")
	case v.Phone == "":
		return v, models.ValidationError("phone_number is required")
	}

	ward := strings.TrimSpace(req.WardNumber)
	if ward == "" {
		return v, models.ValidationError("ward_number is required")
	}
	n, err := strconv.Atoi(ward)
	if err != nil {
		return v, models.ValidationError("ward_number must be numeric")
	}
	if _, ok := r.dir.Ward(n); !ok {
		return v, models.ValidationError("ward %d does not exist", n)
	}
	v.WardNumber = n
	return v, nil
}

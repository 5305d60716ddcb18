// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/store"
	"github.com/google/uuid"
)

// ElectionClock reports the active election and whether voting is over
type ElectionClock interface {
	Election() models.Election
	Ended() bool
}

// VoterSource lists the current voter roll
type VoterSource interface {
	Voters(ctx context.Context) ([]models.Voter, error)
}

// Receipt confirms a recorded ballot. It never names the chosen candidate.
type Receipt struct {
	BallotID   string
	WardNumber int
	CastAt     time.Time
}

// ListChoices returns the ward's candidates numbered 1..n in directory order
// followed by NOTA at n+1
func ListChoices(wc models.WardContext) []models.Choice {
	choices := make([]models.Choice, 0, len(wc.Candidates)+1)
	for i, c := range wc.Candidates {
		choices = append(choices, models.Choice{
			Ordinal:     i + 1,
			Name:        c.FullName,
			Party:       c.Party,
			CandidateID: c.ID,
		})
	}
	return append(choices, models.Choice{
		Ordinal:     len(wc.Candidates) + 1,
		Name:        models.NOTAName,
		Party:       models.NOTAParty,
		CandidateID: models.NOTACandidateID,
	})
}

type Recorder struct {
	tally         store.Tally
	kv            store.KV
	dir           *directory.Directory
	election      ElectionClock
	voters        VoterSource
	enforceSingle bool
	metrics       metrics.Recorder
	now           func() time.Time
}

func NewRecorder(tally store.Tally, kv store.KV, dir *directory.Directory, election ElectionClock, voters VoterSource, enforceSingle bool, m metrics.Recorder) *Recorder {
	return &Recorder{
		tally:         tally,
		kv:            kv,
		dir:           dir,
		election:      election,
		voters:        voters,
		enforceSingle: enforceSingle,
		metrics:       metrics.OrNop(m),
		now:           time.Now,
	}
}

// CastVote records one ballot for the choice with the given ordinal. The
// increment and the ballot receipt are written in one transaction.
func (r *Recorder) CastVote(ctx context.Context, wc models.WardContext, ordinal int) (Receipt, error) {
	var choice *models.Choice
	for _, c := range ListChoices(wc) {
		if c.Ordinal == ordinal {
			choice = &c
			break
		}
	}
	if choice == nil {
		r.metrics.RecordBallotRejected(string(models.KindInvalidSelection))
		return Receipt{}, models.InvalidSelectionError(ordinal)
	}

	if r.election.Ended() {
		r.metrics.RecordBallotRejected("election_ended")
		return Receipt{}, models.ConflictError("election has ended")
	}

	b := store.Ballot{
		ID:          uuid.NewString(),
		Election:    r.election.Election().Name,
		VoterID:     wc.VoterID,
		WardNumber:  wc.Ward.Number,
		CandidateID: choice.CandidateID,
	}
	if err := r.tally.RecordBallot(ctx, b, r.enforceSingle && wc.VoterID != ""); err != nil {
		if errors.Is(err, store.ErrAlreadyVoted) {
			r.metrics.RecordBallotRejected("already_voted")
			return Receipt{}, models.ConflictError("voter has already voted")
		}
		return Receipt{}, fmt.Errorf("failed to record ballot: %w", err)
	}

	r.metrics.RecordVote(wc.Ward.Number)
	slog.InfoContext(ctx, "ballot recorded", "ballot_id", b.ID, "ward", b.WardNumber)

	return Receipt{
		BallotID:   b.ID,
		WardNumber: b.WardNumber,
		CastAt:     r.now(),
	}, nil
}

// HasVoted reports whether the voter already has a ballot in the active
// election. It is always false when single-vote enforcement is off.
func (r *Recorder) HasVoted(ctx context.Context, voterID string) (bool, error) {
	if !r.enforceSingle {
		return false, nil
	}
	return r.tally.HasVoted(ctx, r.election.Election().Name, voterID)
}

// ContextFromHandoff rebuilds the ward context from the ward number the
// verifier last wrote. The result carries no voter identity.
func (r *Recorder) ContextFromHandoff(ctx context.Context) (models.WardContext, error) {
	raw, ok, err := r.kv.Load(ctx, store.KeyWardNumber)
	if err != nil {
		return models.WardContext{}, fmt.Errorf("failed to load ward hand-off: %w", err)
	}
	if !ok {
		return models.WardContext{}, models.NotFoundError("no verified voter")
	}

	number, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return models.WardContext{}, models.ValidationError("ward number %q is not numeric", raw)
	}

	voters, err := r.voters.Voters(ctx)
	if err != nil {
		return models.WardContext{}, err
	}
	return r.dir.WardContext(number, voters)
}

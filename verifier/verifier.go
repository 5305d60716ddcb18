// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package verifier

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/wardvote/ballot"
	"github.com/danielhkuo/wardvote/challenge"
	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
	"github.com/danielhkuo/wardvote/store"
)

const flowName = "verify"

// VoteChecker reports whether a voter already has a ballot
type VoteChecker interface {
	HasVoted(ctx context.Context, voterID string) (bool, error)
}

// Verified is handed to the booth once a voter has echoed their code
type Verified struct {
	BallotToken    string
	TokenExpiresAt time.Time
	WardContext    models.WardContext
}

// Verifier confirms a voter's identity numbers at the polling desk and sends
// a challenge code to the voter's phone
type Verifier struct {
	dir     *directory.Directory
	voters  ballot.VoterSource
	kv      store.KV
	tokens  *ballot.Tokens
	checker VoteChecker
	flows   *challenge.Registry[models.Voter]
	metrics metrics.Recorder
}

// NewVerifier builds a Verifier. A nil checker lets a voter verify again
// after casting a ballot.
func NewVerifier(dir *directory.Directory, voters ballot.VoterSource, kv store.KV, tokens *ballot.Tokens, checker VoteChecker, cfg challenge.Config, sched schedule.Scheduler, sender challenge.Sender, m metrics.Recorder) *Verifier {
	return &Verifier{
		dir:     dir,
		voters:  voters,
		kv:      kv,
		tokens:  tokens,
		checker: checker,
		flows:   challenge.NewRegistry[models.Voter](cfg, sched, sender),
		metrics: metrics.OrNop(m),
	}
}

// Verify looks up a voter by exact national-id and voter-id numbers and
// starts a challenge
func (v *Verifier) Verify(ctx context.Context, nationalID, voterID string) (challenge.Issued, error) {
	if nationalID == "" || voterID == "" {
		v.metrics.RecordVerification(metrics.OutcomeInvalid)
		return challenge.Issued{}, models.ValidationError("national id and voter id are required")
	}

	voters, err := v.voters.Voters(ctx)
	if err != nil {
		return challenge.Issued{}, err
	}

	var found *models.Voter
	for i := range voters {
		if voters[i].NationalID == nationalID && voters[i].VoterID == voterID {
			found = &voters[i]
			break
		}
	}
	if found == nil {
		v.metrics.RecordVerification(metrics.OutcomeNotFound)
		return challenge.Issued{}, models.NotFoundError("no voter matches these numbers")
	}

	issued, err := v.flows.Begin(ctx, found.Phone, *found)
	if err != nil {
		return challenge.Issued{}, err
	}
	v.metrics.RecordVerification(metrics.OutcomeIssued)
	v.metrics.RecordChallenge(flowName, metrics.OutcomeIssued)
	slog.InfoContext(ctx, "verification challenge issued", "flow_id", issued.FlowID, "ward", found.WardNumber)
	return issued, nil
}

// SubmitChallenge completes verification. It resolves the voter's ward
// context, records the ward number hand-off and mints a ballot token.
func (v *Verifier) SubmitChallenge(ctx context.Context, flowID, code string) (Verified, error) {
	voter, err := v.flows.Submit(ctx, flowID, strings.TrimSpace(code))
	if err != nil {
		v.metrics.RecordChallenge(flowName, metrics.OutcomeRejected)
		return Verified{}, err
	}
	v.metrics.RecordChallenge(flowName, metrics.OutcomeGranted)

	if v.checker != nil {
		voted := voter.HasVoted
		if !voted {
			voted, err = v.checker.HasVoted(ctx, voter.VoterID)
			if err != nil {
				return Verified{}, err
			}
		}
		if voted {
			v.metrics.RecordVerification(metrics.OutcomeConflict)
			return Verified{}, models.ConflictError("voter has already voted")
		}
	}

	voters, err := v.voters.Voters(ctx)
	if err != nil {
		return Verified{}, err
	}
	wc, err := v.dir.WardContext(voter.WardNumber, voters)
	if err != nil {
		return Verified{}, err
	}
	wc.VoterID = voter.VoterID

	if err := v.kv.Save(ctx, store.KeyWardNumber, []byte(strconv.Itoa(voter.WardNumber))); err != nil {
		return Verified{}, err
	}

	token, expiresAt, err := v.tokens.Issue(wc)
	if err != nil {
		return Verified{}, err
	}

	v.metrics.RecordVerification(metrics.OutcomeGranted)
	slog.InfoContext(ctx, "voter verified", "ward", voter.WardNumber)
	return Verified{BallotToken: token, TokenExpiresAt: expiresAt, WardContext: wc}, nil
}

// ResendChallenge sends a fresh code to the voter once the countdown ends
func (v *Verifier) ResendChallenge(ctx context.Context, flowID string) (challenge.Issued, error) {
	issued, err := v.flows.Resend(ctx, flowID)
	if errors.Is(err, challenge.ErrCooldownActive) {
		v.metrics.RecordChallenge(flowName, metrics.OutcomeCooldown)
		return challenge.Issued{}, err
	}
	if err != nil {
		return challenge.Issued{}, err
	}
	v.metrics.RecordChallenge(flowName, metrics.OutcomeResent)
	return issued, nil
}

func (v *Verifier) Abandon(flowID string) bool {
	return v.flows.Abandon(flowID)
}

func (v *Verifier) State(flowID string) challenge.State {
	return v.flows.State(flowID)
}

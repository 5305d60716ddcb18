// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package login

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/challenge"
	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/metrics"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
	"golang.org/x/text/cases"
)

const flowName = "login"

// Session is the result of a completed login
type Session struct {
	Token     string
	User      models.User
	ExpiresAt time.Time
}

// Authenticator runs the two-step role login: credentials, then a challenge
// code sent to the user's e-mail
type Authenticator struct {
	dir        *directory.Directory
	flows      *challenge.Registry[models.User]
	secret     string
	sessionTTL time.Duration
	clock      schedule.Scheduler
	metrics    metrics.Recorder
}

func NewAuthenticator(dir *directory.Directory, cfg challenge.Config, sched schedule.Scheduler, sender challenge.Sender, secret string, sessionTTL time.Duration, m metrics.Recorder) *Authenticator {
	if sched == nil {
		sched = schedule.Real{}
	}
	return &Authenticator{
		dir:        dir,
		flows:      challenge.NewRegistry[models.User](cfg, sched, sender),
		secret:     secret,
		sessionTTL: sessionTTL,
		clock:      sched,
		metrics:    metrics.OrNop(m),
	}
}

// BeginLogin checks the credentials and, on a match, sends a challenge code.
// The identifier is either the user's e-mail or full name, compared without
// regard to case.
func (a *Authenticator) BeginLogin(ctx context.Context, role, identifier, secret string) (challenge.Issued, error) {
	role = strings.TrimSpace(role)
	identifier = strings.TrimSpace(identifier)
	switch {
	case role == "":
		return challenge.Issued{}, models.ValidationError("role is required")
	case identifier == "":
		return challenge.Issued{}, models.ValidationError("identifier is required")
	case secret == "":
		return challenge.Issued{}, models.ValidationError("secret is required")
	}
	if role != models.RoleAdmin && role != models.RoleVerifier {
		return challenge.Issued{}, models.ValidationError("unknown role %q", role)
	}

	user, ok := a.match(role, identifier)
	if !ok || auth.CheckPassword(user.PasswordHash, secret) != nil {
		a.metrics.RecordLogin(role, metrics.OutcomeRejected)
		slog.WarnContext(ctx, "login rejected", "role", role)
		return challenge.Issued{}, models.AuthError("invalid credentials")
	}

	issued, err := a.flows.Begin(ctx, user.Email, user)
	if err != nil {
		return challenge.Issued{}, err
	}
	a.metrics.RecordLogin(role, metrics.OutcomeIssued)
	a.metrics.RecordChallenge(flowName, metrics.OutcomeIssued)
	slog.InfoContext(ctx, "login challenge issued", "user_id", user.ID, "role", role, "flow_id", issued.FlowID)
	return issued, nil
}

// SubmitChallenge completes the login and signs a session token
func (a *Authenticator) SubmitChallenge(ctx context.Context, flowID, code string) (Session, error) {
	user, err := a.flows.Submit(ctx, flowID, strings.TrimSpace(code))
	if err != nil {
		a.metrics.RecordChallenge(flowName, metrics.OutcomeRejected)
		return Session{}, err
	}

	now := a.clock.Now()
	token, err := auth.IssueSessionToken(a.secret, user.ID, user.Role, user.FullName, now, a.sessionTTL)
	if err != nil {
		return Session{}, err
	}

	a.metrics.RecordLogin(user.Role, metrics.OutcomeGranted)
	a.metrics.RecordChallenge(flowName, metrics.OutcomeGranted)
	slog.InfoContext(ctx, "login granted", "user_id", user.ID, "role", user.Role)
	return Session{Token: token, User: user, ExpiresAt: now.Add(a.sessionTTL)}, nil
}

// ResendChallenge sends a new code once the countdown has run out
func (a *Authenticator) ResendChallenge(ctx context.Context, flowID string) (challenge.Issued, error) {
	issued, err := a.flows.Resend(ctx, flowID)
	if errors.Is(err, challenge.ErrCooldownActive) {
		a.metrics.RecordChallenge(flowName, metrics.OutcomeCooldown)
		return challenge.Issued{}, err
	}
	if err != nil {
		return challenge.Issued{}, err
	}
	a.metrics.RecordChallenge(flowName, metrics.OutcomeResent)
	return issued, nil
}

// Abandon drops an in-progress login
func (a *Authenticator) Abandon(flowID string) bool {
	return a.flows.Abandon(flowID)
}

// State reports the flow's state
func (a *Authenticator) State(flowID string) challenge.State {
	return a.flows.State(flowID)
}

func (a *Authenticator) match(role, identifier string) (models.User, bool) {
	fold := cases.Fold()
	want := fold.String(identifier)
	for _, u := range a.dir.Users(role) {
		if fold.String(u.Email) == want || fold.String(u.FullName) == want {
			return u, true
		}
	}
	return models.User{}, false
}

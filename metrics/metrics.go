// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus counters for the voting workflow.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeIssued   = "issued"
	OutcomeResent   = "resent"
	OutcomeGranted  = "granted"
	OutcomeRejected = "rejected"
	OutcomeCooldown = "cooldown"
	OutcomeNotFound = "not_found"
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
)

// Recorder is implemented by Collector and Nop
type Recorder interface {
	RecordLogin(role, outcome string)
	RecordChallenge(flow, outcome string)
	RecordVerification(outcome string)
	RecordRegistration(outcome string)
	RecordVote(ward int)
	RecordBallotRejected(reason string)
}

type Collector struct {
	logins        *prometheus.CounterVec
	challenges    *prometheus.CounterVec
	verifications *prometheus.CounterVec
	registrations *prometheus.CounterVec
	votes         *prometheus.CounterVec
	rejected      *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_login_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_challenge_total",
			Help: "Challenge code events by flow and outcome",
		}, []string{"flow", "outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_verification_total",
			Help: "Voter verification attempts by outcome",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_registration_total",
			Help: "Voter registrations by outcome",
		}, []string{"outcome"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_votes_total",
			Help: "Ballots recorded per ward",
		}, []string{"ward"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardvote_ballot_rejected_total",
			Help: "Ballots rejected by reason",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.logins,
		c.challenges,
		c.verifications,
		c.registrations,
		c.votes,
		c.rejected,
	)

	return c
}

func (c *Collector) RecordLogin(role, outcome string) {
	c.logins.WithLabelValues(role, outcome).Inc()
}

func (c *Collector) RecordChallenge(flow, outcome string) {
	c.challenges.WithLabelValues(flow, outcome).Inc()
}

func (c *Collector) RecordVerification(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordVote(ward int) {
	c.votes.WithLabelValues(strconv.Itoa(ward)).Inc()
}

func (c *Collector) RecordBallotRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordLogin(role, outcome string)     {}
func (Nop) RecordChallenge(flow, outcome string) {}
func (Nop) RecordVerification(outcome string)    {}
func (Nop) RecordRegistration(outcome string)    {}
func (Nop) RecordVote(ward int)                  {}
func (Nop) RecordBallotRejected(reason string)   {}

// OrNop returns r, or Nop when r is nil
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler serves the registry for Prometheus scraping
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

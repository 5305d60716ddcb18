// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/wardvote/app"
	"github.com/danielhkuo/wardvote/cliparse"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
	"github.com/danielhkuo/wardvote/testutil"
)

type testEnv struct {
	app   *app.App
	box   *testutil.Mailbox
	clock *schedule.Manual
}

// setupTestApp wires every component over a fresh in-memory database
func setupTestApp(t *testing.T) testEnv {
	t.Helper()
	return setupTestAppWith(t, testutil.GetTestConfig())
}

func setupTestAppWith(t *testing.T, cfg cliparse.Config) testEnv {
	t.Helper()

	box := &testutil.Mailbox{}
	clock := schedule.NewManual(time.Now())
	a, err := app.New(context.Background(), cfg, testutil.TestData(t), testutil.SetupTestDB(t), app.Options{
		Scheduler: clock,
		Sender:    box,
	})
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	return testEnv{app: a, box: box, clock: clock}
}

// verifyVoter runs the verification flow for a seeded voter and returns the
// granted response
func verifyVoter(t *testing.T, env testEnv, nationalID, voterID, phone string) models.VerifiedResponse {
	t.Helper()
	h := NewVoterHandler(env.app.Roll, env.app.Verifier)

	req := testutil.MakeRequest("POST", "/verify", models.VerifyRequest{NationalID: nationalID, VoterID: voterID}, nil)
	w := httptest.NewRecorder()
	h.Verify(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var issued models.ChallengeIssuedResponse
	testutil.AssertJSON(t, w, &issued)

	req = testutil.MakeRequest("POST", "/verify/"+issued.FlowID+"/otp", models.ChallengeRequest{Code: env.box.Last(phone)}, nil)
	req.SetPathValue("flow", issued.FlowID)
	w = httptest.NewRecorder()
	h.SubmitCode(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var verified models.VerifiedResponse
	testutil.AssertJSON(t, w, &verified)
	return verified
}

// castVote posts a ballot with the given token and returns the recorder
func castVote(env testEnv, token string, ordinal int) *httptest.ResponseRecorder {
	h := NewBallotHandler(env.app.Recorder, env.app.Tokens)
	req := testutil.MakeRequest("POST", "/ballot", models.CastVoteRequest{Ordinal: ordinal}, map[string]string{
		BallotTokenHeader: token,
	})
	w := httptest.NewRecorder()
	h.CastVote(w, req)
	return w
}

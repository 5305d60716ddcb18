// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/wardvote/app"
	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/cliparse"
	"github.com/danielhkuo/wardvote/handlers"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
	"github.com/danielhkuo/wardvote/testutil"
)

func newTestRouter(t *testing.T, cfg cliparse.Config) (*http.ServeMux, *testutil.Mailbox) {
	t.Helper()
	box := &testutil.Mailbox{}
	a, err := app.New(context.Background(), cfg, testutil.TestData(t), testutil.SetupTestDB(t), app.Options{
		Scheduler: schedule.NewManual(time.Now()),
		Sender:    box,
	})
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	return NewRouter(a), box
}

func sessionToken(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.IssueSessionToken(testutil.GetTestConfig().SessionSecret, role+"-1", role, "Test "+role, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue session token: %v", err)
	}
	return token
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t, testutil.GetTestConfig())

	w := serve(mux, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t, testutil.GetTestConfig())

	w := serve(mux, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "wardvote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t, testutil.GetTestConfig())

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/election"},
		{"POST", "/auth/login"},
		{"POST", "/auth/login/abc/otp"},
		{"POST", "/auth/login/abc/resend"},
		{"DELETE", "/auth/login/abc"},
		{"POST", "/voters"},
		{"POST", "/verify"},
		{"POST", "/verify/abc/otp"},
		{"GET", "/booth"},
		{"GET", "/ballot"},
		{"POST", "/ballot"},
		{"GET", "/admin/results"},
		{"GET", "/admin/results.csv"},
		{"GET", "/admin/candidates"},
		{"DELETE", "/admin/candidates/abc"},
		{"GET", "/admin/wards"},
		{"PUT", "/admin/wards/7"},
		{"GET", "/metrics"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(route.method, route.path, nil))
			if w.Code == http.StatusNotFound && strings.Contains(w.Body.String(), "404 page not found") {
				t.Errorf("Route %s %s not registered", route.method, route.path)
			}
			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s method not allowed", route.method, route.path)
			}
		})
	}
}

func TestRoleProtection(t *testing.T) {
	mux, _ := newTestRouter(t, testutil.GetTestConfig())

	tests := []struct {
		name           string
		path           string
		role           string
		expectedStatus int
	}{
		{name: "admin route without session", path: "/admin/results", expectedStatus: http.StatusUnauthorized},
		{name: "admin route as verifier", path: "/admin/results", role: models.RoleVerifier, expectedStatus: http.StatusForbidden},
		{name: "admin route as admin", path: "/admin/results", role: models.RoleAdmin, expectedStatus: http.StatusOK},
		{name: "verify without session", path: "/verify", expectedStatus: http.StatusUnauthorized},
		{name: "verify as admin", path: "/verify", role: models.RoleAdmin, expectedStatus: http.StatusForbidden},
		{name: "verify as verifier", path: "/verify", role: models.RoleVerifier, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.role != "" {
				headers = testutil.BearerHeader(sessionToken(t, tt.role))
			}

			method, body := "GET", interface{}(nil)
			if tt.path == "/verify" {
				method, body = "POST", models.VerifyRequest{NationalID: "X9", VoterID: "Y9"}
			}

			w := serve(mux, testutil.MakeRequest(method, tt.path, body, headers))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.RateLimitPerMinute = 2
	mux, _ := newTestRouter(t, cfg)

	login := models.LoginRequest{Role: models.RoleAdmin, Identifier: testutil.AdminEmail, Secret: "wrong"}
	for i, want := range []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests} {
		w := serve(mux, testutil.MakeRequest("POST", "/auth/login", login, nil))
		if w.Code != want {
			t.Errorf("Request %d: expected %d, got %d", i+1, want, w.Code)
		}
	}

	// Unlimited routes are unaffected
	w := serve(mux, httptest.NewRequest("GET", "/election", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

// TestElectionDay walks an admin login, a voter registration, a desk
// verification, a vote and the admin results through the router
func TestElectionDay(t *testing.T) {
	mux, box := newTestRouter(t, testutil.GetTestConfig())

	// Admin logs in
	w := serve(mux, testutil.MakeRequest("POST", "/auth/login", models.LoginRequest{
		Role: models.RoleAdmin, Identifier: testutil.AdminName, Secret: testutil.AdminPassword,
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var issued models.ChallengeIssuedResponse
	testutil.AssertJSON(t, w, &issued)

	w = serve(mux, testutil.MakeRequest("POST", "/auth/login/"+issued.FlowID+"/otp",
		models.ChallengeRequest{Code: box.Last(testutil.AdminEmail)}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var adminLogin models.LoginGrantedResponse
	testutil.AssertJSON(t, w, &adminLogin)
	if adminLogin.NextScreen != "admin_dashboard" {
		t.Errorf("Expected admin_dashboard, got %s", adminLogin.NextScreen)
	}

	// A new voter registers
	w = serve(mux, testutil.MakeRequest("POST", "/voters", models.RegisterVoterRequest{
		FullName: "Fourth Voter", NationalID: "X4", VoterID: "Y4", WardNumber: "7", Phone: "9000000004",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	// The verifier checks them in
	verifierSession := testutil.BearerHeader(sessionToken(t, models.RoleVerifier))
	w = serve(mux, testutil.MakeRequest("POST", "/verify", models.VerifyRequest{NationalID: "X4", VoterID: "Y4"}, verifierSession))
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &issued)

	w = serve(mux, testutil.MakeRequest("POST", "/verify/"+issued.FlowID+"/otp",
		models.ChallengeRequest{Code: box.Last("9000000004")}, verifierSession))
	testutil.AssertStatus(t, w, http.StatusOK)
	var verified models.VerifiedResponse
	testutil.AssertJSON(t, w, &verified)
	if verified.WardContext.RegisteredVoters != 3 {
		t.Errorf("Expected 3 registered voters in ward 7, got %d", verified.WardContext.RegisteredVoters)
	}

	// The booth shows their ward
	w = serve(mux, httptest.NewRequest("GET", "/booth", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	// They vote for B
	ballotHeader := map[string]string{handlers.BallotTokenHeader: verified.BallotToken}
	w = serve(mux, testutil.MakeRequest("POST", "/ballot", models.CastVoteRequest{Ordinal: 2}, ballotHeader))
	testutil.AssertStatus(t, w, http.StatusCreated)

	// The admin sees it
	w = serve(mux, testutil.MakeRequest("GET", "/admin/results", nil, testutil.BearerHeader(adminLogin.Token)))
	testutil.AssertStatus(t, w, http.StatusOK)
	var results []models.WardResult
	testutil.AssertJSON(t, w, &results)
	if results[0].TotalVotes != 1 || results[0].Candidates[1].Votes != 1 {
		t.Errorf("Expected one vote for B in ward 7, got %+v", results[0])
	}

	// And so does /metrics
	w = serve(mux, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `wardvote_votes_total{ward="7"} 1`) {
		t.Error("Expected vote counter in metrics output")
	}
}

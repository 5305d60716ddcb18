// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/testutil"
)

func TestGetElection(t *testing.T) {
	env := setupTestApp(t)
	h := NewElectionHandler(env.app.Watcher)

	w := httptest.NewRecorder()
	h.GetElection(w, testutil.MakeRequest("GET", "/election", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ElectionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Election.Name != testutil.ElectionName {
		t.Errorf("Expected election %q, got %q", testutil.ElectionName, resp.Election.Name)
	}
	if resp.Ended {
		t.Error("Expected election to be running")
	}
}

func TestElectionEnds(t *testing.T) {
	env := setupTestApp(t)
	env.clock.Advance(366 * 24 * time.Hour)

	w := httptest.NewRecorder()
	NewElectionHandler(env.app.Watcher).GetElection(w, testutil.MakeRequest("GET", "/election", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ElectionResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Ended {
		t.Error("Expected election to have ended")
	}
}

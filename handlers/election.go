// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/wardvote/election"
	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
)

type ElectionHandler struct {
	watcher *election.Watcher
}

func NewElectionHandler(watcher *election.Watcher) *ElectionHandler {
	return &ElectionHandler{watcher: watcher}
}

// GetElection handles GET /election
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.ElectionResponse{
		Election: h.watcher.Election(),
		Ended:    h.watcher.Ended(),
	})
}

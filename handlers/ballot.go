// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/wardvote/ballot"
	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/screen"
)

// BallotTokenHeader carries the one-shot token minted at verification
const BallotTokenHeader = "X-Ballot-Token"

type BallotHandler struct {
	recorder *ballot.Recorder
	tokens   *ballot.Tokens
}

func NewBallotHandler(recorder *ballot.Recorder, tokens *ballot.Tokens) *BallotHandler {
	return &BallotHandler{recorder: recorder, tokens: tokens}
}

// Booth handles GET /booth. It shows the ward of the most recently verified
// voter and is read-only.
func (h *BallotHandler) Booth(w http.ResponseWriter, r *http.Request) {
	wc, err := h.recorder.ContextFromHandoff(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.BallotResponse{
		Ward:    wc.Ward,
		Choices: ballot.ListChoices(wc),
	})
}

// GetBallot handles GET /ballot
func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	wc, ok := h.wardContext(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.BallotResponse{
		Ward:    wc.Ward,
		Choices: ballot.ListChoices(wc),
	})
}

// CastVote handles POST /ballot
func (h *BallotHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(BallotTokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "ballot token is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	wc, release, err := h.tokens.Claim(token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	receipt, err := h.recorder.CastVote(r.Context(), wc, req.Ordinal)
	if err != nil {
		// conflicts are final; anything else may be retried with the same token
		if !models.IsKind(err, models.KindConflict) {
			release()
		}
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		BallotID:   receipt.BallotID,
		Message:    "Your vote has been recorded",
		NextScreen: string(screen.After(screen.VoteSelection, screen.VoteCast)),
	})
}

func (h *BallotHandler) wardContext(w http.ResponseWriter, r *http.Request) (models.WardContext, bool) {
	token := r.Header.Get(BallotTokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "ballot token is required")
		return models.WardContext{}, false
	}
	wc, err := h.tokens.Lookup(token)
	if err != nil {
		middleware.WriteError(w, r, err)
		return models.WardContext{}, false
	}
	return wc, true
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/registration"
	"github.com/danielhkuo/wardvote/screen"
	"github.com/danielhkuo/wardvote/verifier"
)

type VoterHandler struct {
	roll     *registration.Roll
	verifier *verifier.Verifier
}

func NewVoterHandler(roll *registration.Roll, v *verifier.Verifier) *VoterHandler {
	return &VoterHandler{roll: roll, verifier: v}
}

// Register handles POST /voters
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	voter, err := h.roll.Register(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, map[string]interface{}{
		"voter":       voter,
		"next_screen": screen.After(screen.Register, screen.Registered),
	})
}

// Verify handles POST /verify
func (h *VoterHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	issued, err := h.verifier.Verify(r.Context(), req.NationalID, req.VoterID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, issuedResponse(issued))
}

// SubmitCode handles POST /verify/{flow}/otp
func (h *VoterHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("flow")
	if flowID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "flow is required")
		return
	}

	var req models.ChallengeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	verified, err := h.verifier.SubmitChallenge(r.Context(), flowID, req.Code)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		slog.Info("voter verified", "verifier", claims.Subject, "ward", verified.WardContext.Ward.Number)
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifiedResponse{
		BallotToken: verified.BallotToken,
		WardContext: verified.WardContext,
		NextScreen:  string(screen.After(screen.VerifierDashboard, screen.VoterVerified)),
	})
}

// Resend handles POST /verify/{flow}/resend
func (h *VoterHandler) Resend(w http.ResponseWriter, r *http.Request) {
	issued, err := h.verifier.ResendChallenge(r.Context(), r.PathValue("flow"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, issuedResponse(issued))
}

// Abandon handles DELETE /verify/{flow}
func (h *VoterHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if !h.verifier.Abandon(r.PathValue("flow")) {
		middleware.ErrorResponse(w, http.StatusNotFound, "challenge not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

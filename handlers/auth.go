// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/wardvote/challenge"
	"github.com/danielhkuo/wardvote/login"
	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/screen"
)

type AuthHandler struct {
	auth *login.Authenticator
}

func NewAuthHandler(auth *login.Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	issued, err := h.auth.BeginLogin(r.Context(), req.Role, req.Identifier, req.Secret)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, issuedResponse(issued))
}

// SubmitCode handles POST /auth/login/{flow}/otp
func (h *AuthHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
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

	session, err := h.auth.SubmitChallenge(r.Context(), flowID, req.Code)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginGrantedResponse{
		Token:      session.Token,
		Role:       session.User.Role,
		FullName:   session.User.FullName,
		NextScreen: string(screen.ForRole(session.User.Role)),
	})
}

// Resend handles POST /auth/login/{flow}/resend
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	issued, err := h.auth.ResendChallenge(r.Context(), r.PathValue("flow"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, issuedResponse(issued))
}

// Abandon handles DELETE /auth/login/{flow}
func (h *AuthHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Abandon(r.PathValue("flow")) {
		middleware.ErrorResponse(w, http.StatusNotFound, "challenge not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func issuedResponse(issued challenge.Issued) models.ChallengeIssuedResponse {
	return models.ChallengeIssuedResponse{
		FlowID:    issued.FlowID,
		ExpiresAt: issued.ExpiresAt,
		ResendIn:  issued.ResendIn,
	}
}

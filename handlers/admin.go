// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/wardvote/ballot"
	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/middleware"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/registration"
	"github.com/danielhkuo/wardvote/results"
	"github.com/danielhkuo/wardvote/store"
)

// AdminHandler serves the admin dashboard: results and the candidate and
// ward catalog. Catalog changes keep the tally rows in step.
type AdminHandler struct {
	dir   *directory.Directory
	tally store.Tally
	roll  *registration.Roll
}

func NewAdminHandler(dir *directory.Directory, tally store.Tally, roll *registration.Roll) *AdminHandler {
	return &AdminHandler{dir: dir, tally: tally, roll: roll}
}

// Results handles GET /admin/results
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	computed, err := h.compute(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, computed)
}

// ResultsCSV handles GET /admin/results.csv
func (h *AdminHandler) ResultsCSV(w http.ResponseWriter, r *http.Request) {
	computed, err := h.compute(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := results.WriteCSV(w, computed); err != nil {
		slog.Error("failed to write results csv", "error", err)
	}
}

func (h *AdminHandler) compute(ctx context.Context) ([]models.WardResult, error) {
	tally, err := h.tally.Tally(ctx)
	if err != nil {
		return nil, err
	}
	return results.Compute(h.dir.Wards(), tally), nil
}

// ListCandidates handles GET /admin/candidates
func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates := h.dir.Candidates()
	if ward := r.URL.Query().Get("ward"); ward != "" {
		n, err := strconv.Atoi(ward)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "ward must be numeric")
			return
		}
		candidates = h.dir.CandidatesInWard(n)
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// CreateCandidate handles POST /admin/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.dir.AddCandidate(req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.tally.EnsureEntry(r.Context(), c.WardNumber, entryFor(c)); err != nil {
		h.dir.DeleteCandidate(c.ID)
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("candidate created", "candidate_id", c.ID, "ward", c.WardNumber)
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /admin/candidates/{id}
func (h *AdminHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	old, ok := h.dir.Candidate(id)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}

	moving := req.WardNumber != old.WardNumber
	if moving {
		votes, err := h.votesFor(r.Context(), old.WardNumber, old.ID)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		if votes > 0 {
			middleware.ErrorResponse(w, http.StatusConflict, "candidate with votes cannot change ward")
			return
		}
	}

	c, err := h.dir.UpdateCandidate(id, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	ctx := r.Context()
	if moving {
		if err := h.tally.DeleteEntry(ctx, old.WardNumber, old.ID); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
	}
	if err := h.tally.EnsureEntry(ctx, c.WardNumber, entryFor(c)); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("candidate updated", "candidate_id", c.ID, "ward", c.WardNumber)
	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCandidate handles DELETE /admin/candidates/{id}
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.dir.Candidate(id)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}

	votes, err := h.votesFor(r.Context(), c.WardNumber, c.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if votes > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "candidate already has votes")
		return
	}

	if _, err := h.dir.DeleteCandidate(id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := h.tally.DeleteEntry(r.Context(), c.WardNumber, c.ID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("candidate deleted", "candidate_id", c.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ListWards handles GET /admin/wards
func (h *AdminHandler) ListWards(w http.ResponseWriter, r *http.Request) {
	wards := h.dir.Wards()
	if wards == nil {
		wards = []models.Ward{}
	}
	middleware.JSONResponse(w, http.StatusOK, wards)
}

// CreateWard handles POST /admin/wards
func (h *AdminHandler) CreateWard(w http.ResponseWriter, r *http.Request) {
	var req models.WardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ward, err := h.dir.AddWard(req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if err := ballot.EnsureNOTA(r.Context(), h.tally, ward.Number); err != nil {
		h.dir.DeleteWard(ward.Number)
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("ward created", "ward", ward.Number)
	middleware.JSONResponse(w, http.StatusCreated, ward)
}

// UpdateWard handles PUT /admin/wards/{number}
func (h *AdminHandler) UpdateWard(w http.ResponseWriter, r *http.Request) {
	number, ok := wardParam(w, r)
	if !ok {
		return
	}

	var req models.WardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ward, err := h.dir.UpdateWard(number, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ward)
}

// DeleteWard handles DELETE /admin/wards/{number}
func (h *AdminHandler) DeleteWard(w http.ResponseWriter, r *http.Request) {
	number, ok := wardParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, exists := h.dir.Ward(number); !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "ward not found")
		return
	}

	registered, err := h.roll.Count(ctx, number)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if registered > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "ward still has registered voters")
		return
	}

	rows, err := h.tally.WardTally(ctx, number)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	for _, e := range rows {
		if e.Votes > 0 {
			middleware.ErrorResponse(w, http.StatusConflict, "ward already has votes")
			return
		}
	}

	if _, err := h.dir.DeleteWard(number); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	for _, e := range rows {
		if err := h.tally.DeleteEntry(ctx, number, e.CandidateID); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
	}

	slog.Info("ward deleted", "ward", number)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) votesFor(ctx context.Context, ward int, candidateID string) (int, error) {
	rows, err := h.tally.WardTally(ctx, ward)
	if err != nil {
		return 0, err
	}
	for _, e := range rows {
		if e.CandidateID == candidateID {
			return e.Votes, nil
		}
	}
	return 0, nil
}

func entryFor(c models.Candidate) models.TallyEntry {
	return models.TallyEntry{CandidateID: c.ID, Name: c.FullName, Party: c.Party}
}

func wardParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ward number must be numeric")
		return 0, false
	}
	return number, true
}

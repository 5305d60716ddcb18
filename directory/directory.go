// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/seed"
	"github.com/google/uuid"
)

// Directory is the in-memory catalog of users, wards, candidates and the
// election. Readers get copies; the admin catalog operations are the only
// writers.
type Directory struct {
	mu         sync.RWMutex
	admins     []models.User
	verifiers  []models.User
	voters     []models.Voter
	wards      []models.Ward
	candidates []models.Candidate
	election   models.Election
}

// New builds a directory from seed data and checks its references
func New(data seed.Data) (*Directory, error) {
	d := &Directory{
		admins:     slices.Clone(data.Admins),
		verifiers:  slices.Clone(data.Verifiers),
		voters:     slices.Clone(data.Voters),
		wards:      slices.Clone(data.Wards),
		candidates: slices.Clone(data.Candidates),
		election:   data.Election,
	}

	seen := make(map[int]bool, len(d.wards))
	for _, w := range d.wards {
		if seen[w.Number] {
			return nil, fmt.Errorf("duplicate ward number %d", w.Number)
		}
		seen[w.Number] = true
	}

	for i, c := range d.candidates {
		if !seen[c.WardNumber] {
			return nil, fmt.Errorf("candidate %q references unknown ward %d", c.FullName, c.WardNumber)
		}
		if c.ID == "" {
			d.candidates[i].ID = uuid.NewString()
		}
	}
	for _, v := range d.voters {
		if !seen[v.WardNumber] {
			return nil, fmt.Errorf("voter %q references unknown ward %d", v.VoterID, v.WardNumber)
		}
	}

	return d, nil
}

// Users returns the credentialed users with the given role
func (d *Directory) Users(role string) []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch role {
	case models.RoleAdmin:
		return slices.Clone(d.admins)
	case models.RoleVerifier:
		return slices.Clone(d.verifiers)
	}
	return nil
}

// SeedVoters returns the bundled voter list
func (d *Directory) SeedVoters() []models.Voter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.voters)
}

func (d *Directory) Election() models.Election {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.election
}

func (d *Directory) Wards() []models.Ward {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.wards)
}

func (d *Directory) Ward(number int) (models.Ward, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.wardIndex(number)
	if i < 0 {
		return models.Ward{}, false
	}
	return d.wards[i], true
}

func (d *Directory) Candidates() []models.Candidate {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.candidates)
}

func (d *Directory) Candidate(id string) (models.Candidate, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.candidateIndex(id)
	if i < 0 {
		return models.Candidate{}, false
	}
	return d.candidates[i], true
}

// CandidatesInWard returns the ward's candidates in directory order
func (d *Directory) CandidatesInWard(number int) []models.Candidate {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.Candidate
	for _, c := range d.candidates {
		if c.WardNumber == number {
			out = append(out, c)
		}
	}
	return out
}

// AddCandidate validates and appends a candidate
func (d *Directory) AddCandidate(req models.CandidateRequest) (models.Candidate, error) {
	c := candidateFromRequest(req)
	if err := validateCandidate(c); err != nil {
		return models.Candidate{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wardIndex(c.WardNumber) < 0 {
		return models.Candidate{}, models.ValidationError("ward %d does not exist", c.WardNumber)
	}
	c.ID = uuid.NewString()
	d.candidates = append(d.candidates, c)
	return c, nil
}

// UpdateCandidate replaces every field of an existing candidate
func (d *Directory) UpdateCandidate(id string, req models.CandidateRequest) (models.Candidate, error) {
	c := candidateFromRequest(req)
	if err := validateCandidate(c); err != nil {
		return models.Candidate{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.candidateIndex(id)
	if i < 0 {
		return models.Candidate{}, models.NotFoundError("candidate %s not found", id)
	}
	if d.wardIndex(c.WardNumber) < 0 {
		return models.Candidate{}, models.ValidationError("ward %d does not exist", c.WardNumber)
	}
	c.ID = id
	d.candidates[i] = c
	return c, nil
}

func (d *Directory) DeleteCandidate(id string) (models.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.candidateIndex(id)
	if i < 0 {
		return models.Candidate{}, models.NotFoundError("candidate %s not found", id)
	}
	c := d.candidates[i]
	d.candidates = slices.Delete(d.candidates, i, i+1)
	return c, nil
}

// AddWard validates and appends a ward; ward numbers are unique
func (d *Directory) AddWard(req models.WardRequest) (models.Ward, error) {
	w := models.Ward(req)
	if err := validateWard(w); err != nil {
		return models.Ward{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wardIndex(w.Number) >= 0 {
		return models.Ward{}, models.ConflictError("ward %d already exists", w.Number)
	}
	d.wards = append(d.wards, w)
	return w, nil
}

// UpdateWard replaces a ward's fields; the number itself cannot change
func (d *Directory) UpdateWard(number int, req models.WardRequest) (models.Ward, error) {
	if req.Number != 0 && req.Number != number {
		return models.Ward{}, models.ValidationError("ward number cannot be changed")
	}
	w := models.Ward(req)
	w.Number = number
	if err := validateWard(w); err != nil {
		return models.Ward{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.wardIndex(number)
	if i < 0 {
		return models.Ward{}, models.NotFoundError("ward %d not found", number)
	}
	d.wards[i] = w
	return w, nil
}

// DeleteWard removes a ward that no candidate or seed voter references
func (d *Directory) DeleteWard(number int) (models.Ward, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.wardIndex(number)
	if i < 0 {
		return models.Ward{}, models.NotFoundError("ward %d not found", number)
	}
	for _, c := range d.candidates {
		if c.WardNumber == number {
			return models.Ward{}, models.ConflictError("ward %d still has candidates", number)
		}
	}
	for _, v := range d.voters {
		if v.WardNumber == number {
			return models.Ward{}, models.ConflictError("ward %d still has registered voters", number)
		}
	}
	w := d.wards[i]
	d.wards = slices.Delete(d.wards, i, i+1)
	return w, nil
}

func (d *Directory) wardIndex(number int) int {
	return slices.IndexFunc(d.wards, func(w models.Ward) bool { return w.Number == number })
}

func (d *Directory) candidateIndex(id string) int {
	return slices.IndexFunc(d.candidates, func(c models.Candidate) bool { return c.ID == id })
}

func candidateFromRequest(req models.CandidateRequest) models.Candidate {
	return models.Candidate{
		FullName:   strings.TrimSpace(req.FullName),
		Party:      strings.TrimSpace(req.Party),
		WardNumber: req.WardNumber,
		Phone:      strings.TrimSpace(req.Phone),
		NationalID: strings.TrimSpace(req.NationalID),
		Address:    strings.TrimSpace(req.Address),
	}
}

func validateCandidate(c models.Candidate) error {
	if c.FullName == "" {
		return models.ValidationError("full_name is required")
	}
	if c.Party == "" {
		return models.ValidationError("party is required")
	}
	if c.WardNumber <= 0 {
		return models.ValidationError("ward_number is required")
	}
	if strings.EqualFold(c.FullName, models.NOTAName) {
		return models.ValidationError("%s is reserved", models.NOTAName)
	}
	return nil
}

func validateWard(w models.Ward) error {
	if w.Number <= 0 {
		return models.ValidationError("ward_number is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return models.ValidationError("ward_name is required")
	}
	if strings.TrimSpace(w.District) == "" {
		return models.ValidationError("district is required")
	}
	if w.Population < 0 {
		return models.ValidationError("population must not be negative")
	}
	return nil
}

// WardContext bundles a ward with its candidates and the number of voters
// registered in it
func (d *Directory) WardContext(number int, voters []models.Voter) (models.WardContext, error) {
	w, ok := d.Ward(number)
	if !ok {
		return models.WardContext{}, models.NotFoundError("ward %d not found", number)
	}

	registered := 0
	for _, v := range voters {
		if v.WardNumber == number {
			registered++
		}
	}

	candidates := d.CandidatesInWard(number)
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return models.WardContext{
		Ward:             w,
		Candidates:       candidates,
		RegisteredVoters: registered,
	}, nil
}

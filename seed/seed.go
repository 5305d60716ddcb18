// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"

	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/models"
)

//go:embed data/*.json
var bundled embed.FS

// File names inside a seed directory
const (
	AdminsFile     = "admins.json"
	VerifiersFile  = "verifiers.json"
	VotersFile     = "voters.json"
	WardsFile      = "wards.json"
	CandidatesFile = "candidates.json"
	ElectionsFile  = "elections.json"
	ResultsFile    = "results.json"
)

// Data is the fully normalized seed set
type Data struct {
	Admins     []models.User
	Verifiers  []models.User
	Voters     []models.Voter
	Wards      []models.Ward
	Candidates []models.Candidate
	Election   models.Election
	// Results holds the bundled tally keyed by ward. CandidateID is left
	// empty; rows are matched to candidates by name when the tally is seeded.
	Results models.Tally
}

// Bundled returns the data files compiled into the binary
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load reads every seed file from fsys and hashes user passwords with the
// given bcrypt cost (0 for the default cost). results.json is optional.
func Load(fsys fs.FS, passwordCost int) (Data, error) {
	var data Data
	var err error

	if data.Admins, err = loadUsers(fsys, AdminsFile, models.RoleAdmin, passwordCost); err != nil {
		return Data{}, err
	}
	if data.Verifiers, err = loadUsers(fsys, VerifiersFile, models.RoleVerifier, passwordCost); err != nil {
		return Data{}, err
	}

	raw, err := fs.ReadFile(fsys, VotersFile)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read %s: %w", VotersFile, err)
	}
	if data.Voters, err = ParseVoters(raw); err != nil {
		return Data{}, fmt.Errorf("%s: %w", VotersFile, err)
	}

	if data.Wards, err = loadWards(fsys); err != nil {
		return Data{}, err
	}
	if data.Candidates, err = loadCandidates(fsys); err != nil {
		return Data{}, err
	}
	if data.Election, err = loadElection(fsys); err != nil {
		return Data{}, err
	}

	data.Results, err = loadResults(fsys)
	if err != nil {
		return Data{}, err
	}

	return data, nil
}

func readDocs(fsys fs.FS, name string) ([]any, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	top, err := decodeExtJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	docs, err := asList(top)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return docs, nil
}

func loadUsers(fsys fs.FS, name, defaultRole string, cost int) ([]models.User, error) {
	docs, err := readDocs(fsys, name)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for i, doc := range docs {
		u := models.User{
			ID:       asString(field(doc, "_id")),
			FullName: asString(firstField(doc, "fullname", "full_name")),
			Email:    asString(field(doc, "email")),
			Role:     asString(field(doc, "role")),
		}
		if u.Role == "" {
			u.Role = defaultRole
		}
		if u.Email == "" && u.FullName == "" {
			return nil, fmt.Errorf("%s[%d]: user has neither email nor name", name, i)
		}
		u.PasswordHash, err = auth.HashPassword(asString(field(doc, "password")), cost)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// ParseVoters decodes a voter list in either extended or plain JSON
func ParseVoters(raw []byte) ([]models.Voter, error) {
	top, err := decodeExtJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse voters: %w", err)
	}
	docs, err := asList(top)
	if err != nil {
		return nil, err
	}

	voters := make([]models.Voter, 0, len(docs))
	for i, doc := range docs {
		ward, err := asInt(field(doc, "ward_number"))
		if err != nil {
			return nil, fmt.Errorf("voter %d: ward_number: %w", i, err)
		}
		v := models.Voter{
			ID:         asString(field(doc, "_id")),
			FullName:   asString(field(doc, "full_name")),
			NationalID: asString(field(doc, "aadhar_number")),
			VoterID:    asString(field(doc, "voter_id")),
			WardNumber: ward,
			Phone:      asString(field(doc, "phone_number")),
		}
		if hv, ok := field(doc, "has_voted").(bool); ok {
			v.HasVoted = hv
		}
		voters = append(voters, v)
	}
	return voters, nil
}

func loadWards(fsys fs.FS) ([]models.Ward, error) {
	docs, err := readDocs(fsys, WardsFile)
	if err != nil {
		return nil, err
	}

	wards := make([]models.Ward, 0, len(docs))
	for i, doc := range docs {
		number, err := asInt(field(doc, "ward_number"))
		if err != nil {
			return nil, fmt.Errorf("ward %d: ward_number: %w", i, err)
		}
		population, err := asInt(field(doc, "population"))
		if err != nil {
			return nil, fmt.Errorf("ward %d: population: %w", i, err)
		}
		wards = append(wards, models.Ward{
			Number:     number,
			Name:       asString(field(doc, "ward_name")),
			District:   asString(field(doc, "district")),
			Population: population,
			Verifier:   asString(field(doc, "verifier")),
		})
	}
	return wards, nil
}

func loadCandidates(fsys fs.FS) ([]models.Candidate, error) {
	docs, err := readDocs(fsys, CandidatesFile)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(docs))
	for i, doc := range docs {
		ward, err := asInt(field(doc, "ward_number"))
		if err != nil {
			return nil, fmt.Errorf("candidate %d: ward_number: %w", i, err)
		}
		candidates = append(candidates, models.Candidate{
			ID:         asString(field(doc, "_id")),
			FullName:   asString(field(doc, "full_name")),
			Party:      asString(field(doc, "party")),
			WardNumber: ward,
			Phone:      asString(field(doc, "phone_number")),
			NationalID: asString(field(doc, "aadhar_number")),
			Address:    asString(field(doc, "address")),
		})
	}
	return candidates, nil
}

// loadElection returns the active election: the first upcoming record, or
// the first record when none is upcoming
func loadElection(fsys fs.FS) (models.Election, error) {
	docs, err := readDocs(fsys, ElectionsFile)
	if err != nil {
		return models.Election{}, err
	}
	if len(docs) == 0 {
		return models.Election{}, fmt.Errorf("%s: no election record", ElectionsFile)
	}

	doc := docs[0]
	for _, d := range docs {
		if asString(field(d, "status")) == models.StatusUpcoming {
			doc = d
			break
		}
	}
	start, err := asTime(field(doc, "start_time"))
	if err != nil {
		return models.Election{}, fmt.Errorf("election start_time: %w", err)
	}
	end, err := asTime(field(doc, "end_time"))
	if err != nil {
		return models.Election{}, fmt.Errorf("election end_time: %w", err)
	}

	e := models.Election{
		Name:      asString(field(doc, "election_name")),
		StartTime: start,
		EndTime:   end,
		Status:    asString(field(doc, "status")),
	}
	if e.Status == "" {
		e.Status = models.StatusUpcoming
	}
	return e, nil
}

func loadResults(fsys fs.FS) (models.Tally, error) {
	raw, err := fs.ReadFile(fsys, ResultsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Tally{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ResultsFile, err)
	}
	top, err := decodeExtJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ResultsFile, err)
	}

	wardKeys := keys(top)
	sort.Strings(wardKeys)

	tally := make(models.Tally, len(wardKeys))
	for _, key := range wardKeys {
		ward, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%s: ward key %q is not a number", ResultsFile, key)
		}
		rows, err := asList(field(top, key))
		if err != nil {
			return nil, fmt.Errorf("%s: ward %d: %w", ResultsFile, ward, err)
		}
		entries := make([]models.TallyEntry, 0, len(rows))
		for _, row := range rows {
			votes, err := asInt(field(row, "votes"))
			if err != nil {
				return nil, fmt.Errorf("%s: ward %d: votes: %w", ResultsFile, ward, err)
			}
			entries = append(entries, models.TallyEntry{
				Name:  asString(firstField(row, "candidate_full_name", "full_name")),
				Party: asString(field(row, "party")),
				Votes: votes,
			})
		}
		tally[ward] = entries
	}
	return tally, nil
}

package models

import "time"

// Role constants
const (
	RoleAdmin    = "admin"
	RoleVerifier = "verifier"
)

// Election status constants
const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

// Ballot constants
const (
	NOTAName        = "NOTA"
	NOTAParty       = "None Of The Above"
	NOTACandidateID = "NOTA"
)

// Domain types

type User struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"` // bcrypt, never exposed
	Role         string `json:"role"`
}

type Voter struct {
	ID         string `json:"_id"`
	FullName   string `json:"full_name"`
	NationalID string `json:"aadhar_number"`
	VoterID    string `json:"voter_id"`
	WardNumber int    `json:"ward_number"`
	Phone      string `json:"phone_number"`
	HasVoted   bool   `json:"has_voted,omitempty"`
}

type Ward struct {
	Number     int    `json:"ward_number"`
	Name       string `json:"ward_name"`
	District   string `json:"district"`
	Population int    `json:"population"`
	Verifier   string `json:"verifier"`
}

type Candidate struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Party      string `json:"party"`
	WardNumber int    `json:"ward_number"`
	Phone      string `json:"phone_number"`
	NationalID string `json:"aadhar_number"`
	Address    string `json:"address"`
}

type Election struct {
	Name      string    `json:"election_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// Ended reports whether voting is over at the given instant
func (e Election) Ended(now time.Time) bool {
	if e.Status == StatusCompleted {
		return true
	}
	return !e.EndTime.IsZero() && !now.Before(e.EndTime)
}

// TallyEntry is one candidate row of a ward's vote table
type TallyEntry struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"candidate_full_name"`
	Party       string `json:"party"`
	Votes       int    `json:"votes"`
}

// Tally maps ward number -> ordered candidate rows
type Tally map[int][]TallyEntry

// WardContext is what a verified voter carries into the booth
type WardContext struct {
	Ward             Ward        `json:"ward"`
	Candidates       []Candidate `json:"candidates"`
	RegisteredVoters int         `json:"registered_voters"`
	VoterID          string      `json:"-"`
}

type Choice struct {
	Ordinal     int    `json:"ordinal"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	CandidateID string `json:"candidate_id"`
}

// Results types

type CandidateShare struct {
	Name         string  `json:"name"`
	Party        string  `json:"party"`
	Votes        int     `json:"votes"`
	SharePercent float64 `json:"share_percent"`
}

type WardResult struct {
	WardNumber int              `json:"ward_number"`
	Population int              `json:"population"`
	TotalVotes int              `json:"total_votes"`
	Candidates []CandidateShare `json:"candidates"`
}

// Request types

type LoginRequest struct {
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type ChallengeRequest struct {
	Code string `json:"code"`
}

type VerifyRequest struct {
	NationalID string `json:"national_id"`
	VoterID    string `json:"voter_id"`
}

type RegisterVoterRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"aadhar_number"`
	VoterID    string `json:"voter_id"`
	WardNumber string `json:"ward_number"` // form value, parsed server-side
	Phone      string `json:"phone_number"`
}

type CastVoteRequest struct {
	Ordinal int `json:"ordinal"`
}

type CandidateRequest struct {
	FullName   string `json:"full_name"`
	Party      string `json:"party"`
	WardNumber int    `json:"ward_number"`
	Phone      string `json:"phone_number"`
	NationalID string `json:"aadhar_number"`
	Address    string `json:"address"`
}

type WardRequest struct {
	Number     int    `json:"ward_number"`
	Name       string `json:"ward_name"`
	District   string `json:"district"`
	Population int    `json:"population"`
	Verifier   string `json:"verifier"`
}

// Response types

type ChallengeIssuedResponse struct {
	FlowID    string    `json:"flow_id"`
	ExpiresAt time.Time `json:"expires_at"`
	ResendIn  int       `json:"resend_in_seconds"`
}

type LoginGrantedResponse struct {
	Token      string `json:"token"`
	Role       string `json:"role"`
	FullName   string `json:"full_name"`
	NextScreen string `json:"next_screen"`
}

type VerifiedResponse struct {
	BallotToken string      `json:"ballot_token"`
	WardContext WardContext `json:"ward_context"`
	NextScreen  string      `json:"next_screen"`
}

type BallotResponse struct {
	Ward    Ward     `json:"ward"`
	Choices []Choice `json:"choices"`
}

type CastVoteResponse struct {
	BallotID   string `json:"ballot_id"`
	Message    string `json:"message"`
	NextScreen string `json:"next_screen"`
}

type ElectionResponse struct {
	Election Election `json:"election"`
	Ended    bool     `json:"ended"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

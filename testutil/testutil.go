// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/cliparse"
	"github.com/danielhkuo/wardvote/db"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/seed"
	"golang.org/x/crypto/bcrypt"
)

// Fixture credentials
const (
	AdminEmail       = "meera.nair@example.test"
	AdminName        = "Meera Nair"
	AdminPassword    = "admin@123"
	VerifierEmail    = "anita.desai@example.test"
	VerifierName     = "Anita Desai"
	VerifierPassword = "verify@151"
	ElectionName     = "Test Ward Election"
)

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a SQL store over a fresh test database
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t), db.TypeSQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                 3318,
		DatabaseURL:          ":memory:",
		DatabaseType:         db.TypeSQLite,
		SessionSecret:        "test-session-secret",
		TokenSalt:            "test-token-salt",
		SessionTTL:           time.Hour,
		ChallengeCooldown:    60 * time.Second,
		ChallengeTTL:         5 * time.Minute,
		ChallengeMaxAttempts: 5,
		EnforceSingleVote:    true,
		RateLimitPerMinute:   0,
		LogLevel:             "info",
	}
}

// TestData returns a small directory: ward 7 (population 1000) with
// candidates A and B, ward 8 with candidate C, and voters X1/Y1 and X2/Y2
// in ward 7 and X3/Y3 in ward 8. The election ends a year from now.
func TestData(t *testing.T) seed.Data {
	t.Helper()

	return seed.Data{
		Admins: []models.User{
			testUser(t, "admin-1", AdminName, AdminEmail, AdminPassword, models.RoleAdmin),
		},
		Verifiers: []models.User{
			testUser(t, "verifier-1", VerifierName, VerifierEmail, VerifierPassword, models.RoleVerifier),
		},
		Wards: []models.Ward{
			{Number: 7, Name: "Ward Seven", District: "Pune", Population: 1000, Verifier: VerifierName},
			{Number: 8, Name: "Ward Eight", District: "Pune", Population: 500, Verifier: VerifierName},
		},
		Candidates: []models.Candidate{
			{ID: "cand-a", FullName: "A", Party: "Party One", WardNumber: 7},
			{ID: "cand-b", FullName: "B", Party: "Party Two", WardNumber: 7},
			{ID: "cand-c", FullName: "C", Party: "Party One", WardNumber: 8},
		},
		Voters: []models.Voter{
			{ID: "voter-1", FullName: "First Voter", NationalID: "X1", VoterID: "Y1", WardNumber: 7, Phone: "9000000001"},
			{ID: "voter-2", FullName: "Second Voter", NationalID: "X2", VoterID: "Y2", WardNumber: 7, Phone: "9000000002"},
			{ID: "voter-3", FullName: "Third Voter", NationalID: "X3", VoterID: "Y3", WardNumber: 8, Phone: "9000000003"},
		},
		Election: models.Election{
			Name:      ElectionName,
			StartTime: time.Now().Add(-time.Hour),
			EndTime:   time.Now().Add(365 * 24 * time.Hour),
			Status:    models.StatusOngoing,
		},
		Results: models.Tally{},
	}
}

func testUser(t *testing.T, id, name, email, password, role string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	return models.User{ID: id, FullName: name, Email: email, PasswordHash: hash, Role: role}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader returns an Authorization header for a session token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// Mailbox captures challenge codes in place of SMS or e-mail delivery
type Mailbox struct {
	mu    sync.Mutex
	codes map[string][]string
}

func (m *Mailbox) Send(ctx context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string][]string)
	}
	m.codes[to] = append(m.codes[to], code)
	return nil
}

// Last returns the most recent code sent to the recipient, or ""
func (m *Mailbox) Last(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.codes[to]
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/store"
	"github.com/lib/pq"
)

// Store implements store.KV and store.Tally over SQL
type Store struct {
	db     *sql.DB
	dbType string
}

var (
	_ store.KV    = (*Store)(nil)
	_ store.Tally = (*Store)(nil)
)

func NewStore(conn *sql.DB, dbType string) *Store {
	return &Store{db: conn, dbType: dbType}
}

// rebind rewrites ? placeholders to $N for postgres
func (s *Store) rebind(query string) string {
	if s.dbType != TypePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT value FROM kv_entry WHERE key = ?
	`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO kv_entry (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// NOTA sorts after every candidate regardless of insertion order
const tallyOrder = `ORDER BY ward_number, CASE WHEN candidate_id = 'NOTA' THEN 1 ELSE 0 END, position`

func (s *Store) Tally(ctx context.Context) (models.Tally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ward_number, candidate_id, candidate_name, party, votes
		FROM tally
		`+tallyOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}
	defer rows.Close()

	tally := make(models.Tally)
	for rows.Next() {
		var ward int
		var e models.TallyEntry
		if err := rows.Scan(&ward, &e.CandidateID, &e.Name, &e.Party, &e.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		tally[ward] = append(tally[ward], e)
	}
	return tally, rows.Err()
}

func (s *Store) WardTally(ctx context.Context, ward int) ([]models.TallyEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT candidate_id, candidate_name, party, votes
		FROM tally
		WHERE ward_number = ?
		`+tallyOrder), ward)
	if err != nil {
		return nil, fmt.Errorf("failed to query ward tally: %w", err)
	}
	defer rows.Close()

	var entries []models.TallyEntry
	for rows.Next() {
		var e models.TallyEntry
		if err := rows.Scan(&e.CandidateID, &e.Name, &e.Party, &e.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// EnsureEntry inserts a zero row, or refreshes the name and party of an
// existing one without touching its count
func (s *Store) EnsureEntry(ctx context.Context, ward int, entry models.TallyEntry) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO tally (ward_number, candidate_id, candidate_name, party, votes, position)
		VALUES (?, ?, ?, ?, 0, (SELECT COALESCE(MAX(position), 0) + 1 FROM tally WHERE ward_number = ?))
		ON CONFLICT (ward_number, candidate_id)
		DO UPDATE SET candidate_name = excluded.candidate_name, party = excluded.party
	`), ward, entry.CandidateID, entry.Name, entry.Party, ward)
	if err != nil {
		return fmt.Errorf("failed to ensure tally entry: %w", err)
	}
	return nil
}

func (s *Store) SetVotes(ctx context.Context, ward int, candidateID string, votes int) error {
	if votes < 0 {
		return models.ValidationError("votes must not be negative")
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE tally SET votes = ? WHERE ward_number = ? AND candidate_id = ?
	`), votes, ward, candidateID)
	if err != nil {
		return fmt.Errorf("failed to set votes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundError("no tally entry for candidate %s in ward %d", candidateID, ward)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, ward int, candidateID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM tally WHERE ward_number = ? AND candidate_id = ?
	`), ward, candidateID)
	if err != nil {
		return fmt.Errorf("failed to delete tally entry: %w", err)
	}
	return nil
}

func (s *Store) RecordBallot(ctx context.Context, b store.Ballot, enforceSingle bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var singleKey *string
	if enforceSingle {
		var count int
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT COUNT(*) FROM ballot WHERE election = ? AND voter_id = ?
		`), b.Election, b.VoterID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check existing ballot: %w", err)
		}
		if count > 0 {
			return store.ErrAlreadyVoted
		}
		key := b.Election + "\x00" + b.VoterID
		singleKey = &key
	}

	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE tally SET votes = votes + 1 WHERE ward_number = ? AND candidate_id = ?
	`), b.WardNumber, b.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to increment tally: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundError("no tally entry for candidate %s in ward %d", b.CandidateID, b.WardNumber)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO ballot (id, election, voter_id, ward_number, single_key, cast_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), b.ID, b.Election, b.VoterID, b.WardNumber, singleKey, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to insert ballot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ballot: %w", err)
	}
	return nil
}

func (s *Store) HasVoted(ctx context.Context, election, voterID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM ballot WHERE election = ? AND voter_id = ?
	`), election, voterID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check ballot: %w", err)
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

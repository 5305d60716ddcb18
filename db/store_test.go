// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := Open(TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := CreateSchema(conn, TypeSQLite); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	return NewStore(conn, TypeSQLite)
}

func seedWard(t *testing.T, s *Store, ward int, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.EnsureEntry(context.Background(), ward, models.TallyEntry{CandidateID: id, Name: "Candidate " + id, Party: "P"}); err != nil {
			t.Fatalf("EnsureEntry(%s) error = %v", id, err)
		}
	}
}

func TestCreateSchemaIdempotent(t *testing.T) {
	conn, err := Open(TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		if err := CreateSchema(conn, TypeSQLite); err != nil {
			t.Fatalf("CreateSchema() call %d error = %v", i+1, err)
		}
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Error("Open() should reject unsupported database types")
	}
	if _, err := Open(TypeSQLite, ""); err == nil {
		t.Error("Open() should require a URL")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dbType: TypePostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind() = %q", got)
	}
	lite := &Store{dbType: TypeSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind() = %q", got)
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, store.KeyWardNumber); err != nil || ok {
		t.Fatalf("Load() missing key: ok %v, err %v", ok, err)
	}

	for _, v := range []string{"151", "152"} {
		if err := s.Save(ctx, store.KeyWardNumber, []byte(v)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, ok, err := s.Load(ctx, store.KeyWardNumber)
	if err != nil || !ok {
		t.Fatalf("Load() ok %v, err %v", ok, err)
	}
	if string(got) != "152" {
		t.Errorf("Load() = %q, want last saved value", got)
	}
}

func TestTallyOrderKeepsNOTALast(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedWard(t, s, 7, "A", "B", models.NOTACandidateID)
	// added after NOTA but must still sort before it
	seedWard(t, s, 7, "C")

	entries, err := s.WardTally(ctx, 7)
	if err != nil {
		t.Fatalf("WardTally() error = %v", err)
	}
	want := []string{"A", "B", "C", models.NOTACandidateID}
	if len(entries) != len(want) {
		t.Fatalf("WardTally() returned %d rows, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].CandidateID != id {
			t.Errorf("row %d = %s, want %s", i, entries[i].CandidateID, id)
		}
	}
}

func TestEnsureEntryKeepsVotes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedWard(t, s, 7, "A")
	if err := s.SetVotes(ctx, 7, "A", 3); err != nil {
		t.Fatalf("SetVotes() error = %v", err)
	}
	if err := s.EnsureEntry(ctx, 7, models.TallyEntry{CandidateID: "A", Name: "Renamed", Party: "Q"}); err != nil {
		t.Fatalf("EnsureEntry() error = %v", err)
	}

	entries, _ := s.WardTally(ctx, 7)
	if entries[0].Votes != 3 || entries[0].Name != "Renamed" {
		t.Errorf("unexpected entry after refresh: %+v", entries[0])
	}

	if err := s.SetVotes(ctx, 7, "missing", 1); !models.IsKind(err, models.KindNotFound) {
		t.Errorf("SetVotes() on missing row error = %v, want not found", err)
	}
	if err := s.SetVotes(ctx, 7, "A", -1); !models.IsKind(err, models.KindValidation) {
		t.Errorf("SetVotes() negative error = %v, want validation", err)
	}
}

func TestRecordBallot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedWard(t, s, 7, "A", "B")

	b := store.Ballot{ID: "b1", Election: "E", VoterID: "v1", WardNumber: 7, CandidateID: "A"}
	if err := s.RecordBallot(ctx, b, true); err != nil {
		t.Fatalf("RecordBallot() error = %v", err)
	}

	voted, err := s.HasVoted(ctx, "E", "v1")
	if err != nil || !voted {
		t.Fatalf("HasVoted() = %v, %v", voted, err)
	}

	b.ID = "b2"
	b.CandidateID = "B"
	if err := s.RecordBallot(ctx, b, true); !errors.Is(err, store.ErrAlreadyVoted) {
		t.Fatalf("second RecordBallot() error = %v, want %v", err, store.ErrAlreadyVoted)
	}

	entries, _ := s.WardTally(ctx, 7)
	if entries[0].Votes != 1 || entries[1].Votes != 0 {
		t.Errorf("tally after rejected ballot = %+v", entries)
	}
}

func TestRecordBallotWithoutSingleVote(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedWard(t, s, 7, "A")

	for i, id := range []string{"b1", "b2"} {
		b := store.Ballot{ID: id, Election: "E", VoterID: "v1", WardNumber: 7, CandidateID: "A"}
		if err := s.RecordBallot(ctx, b, false); err != nil {
			t.Fatalf("RecordBallot() %d error = %v", i, err)
		}
	}

	entries, _ := s.WardTally(ctx, 7)
	if entries[0].Votes != 2 {
		t.Errorf("votes = %d, want 2", entries[0].Votes)
	}
}

func TestRecordBallotUnknownCandidateIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedWard(t, s, 7, "A")

	b := store.Ballot{ID: "b1", Election: "E", VoterID: "v1", WardNumber: 7, CandidateID: "Z"}
	if err := s.RecordBallot(ctx, b, true); !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("RecordBallot() error = %v, want not found", err)
	}

	voted, _ := s.HasVoted(ctx, "E", "v1")
	if voted {
		t.Error("failed ballot must not leave a receipt")
	}
}

func TestRecordBallotConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedWard(t, s, 7, "A")

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := store.Ballot{ID: string(rune('a' + i)), Election: "E", VoterID: string(rune('a' + i)), WardNumber: 7, CandidateID: "A"}
			errs <- s.RecordBallot(ctx, b, true)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("RecordBallot() error = %v", err)
		}
	}

	entries, _ := s.WardTally(ctx, 7)
	if entries[0].Votes != voters {
		t.Errorf("votes = %d, want %d", entries[0].Votes, voters)
	}
}

func TestTallyGroupsByWard(t *testing.T) {
	s := openTestStore(t)
	seedWard(t, s, 7, "A", "B")
	seedWard(t, s, 8, "C")

	tally, err := s.Tally(context.Background())
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(tally[7]) != 2 || len(tally[8]) != 1 {
		t.Errorf("unexpected tally: %+v", tally)
	}
}

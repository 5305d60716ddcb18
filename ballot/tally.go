// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/wardvote/directory"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/store"
)

// InitTally makes sure every ward has a row per candidate plus NOTA. Counts
// from initial are applied only to rows created by this call, matched by
// candidate name within the ward, so a restart never overwrites live votes.
func InitTally(ctx context.Context, tally store.Tally, dir *directory.Directory, initial models.Tally) error {
	existing, err := tally.Tally(ctx)
	if err != nil {
		return err
	}

	has := func(ward int, id string) bool {
		for _, e := range existing[ward] {
			if e.CandidateID == id {
				return true
			}
		}
		return false
	}

	seedVotes := func(ward int, name string) (int, bool) {
		for _, e := range initial[ward] {
			if strings.EqualFold(strings.TrimSpace(e.Name), name) {
				return e.Votes, true
			}
		}
		return 0, false
	}

	created := 0
	for _, w := range dir.Wards() {
		rows := make([]models.TallyEntry, 0)
		for _, c := range dir.CandidatesInWard(w.Number) {
			rows = append(rows, models.TallyEntry{CandidateID: c.ID, Name: c.FullName, Party: c.Party})
		}
		rows = append(rows, models.TallyEntry{
			CandidateID: models.NOTACandidateID,
			Name:        models.NOTAName,
			Party:       models.NOTAParty,
		})

		for _, row := range rows {
			fresh := !has(w.Number, row.CandidateID)
			if err := tally.EnsureEntry(ctx, w.Number, row); err != nil {
				return fmt.Errorf("ward %d: %w", w.Number, err)
			}
			if !fresh {
				continue
			}
			created++
			if votes, ok := seedVotes(w.Number, row.Name); ok && votes > 0 {
				if err := tally.SetVotes(ctx, w.Number, row.CandidateID, votes); err != nil {
					return fmt.Errorf("ward %d: %w", w.Number, err)
				}
			}
		}
	}

	for ward, entries := range initial {
		if _, ok := dir.Ward(ward); !ok {
			slog.Warn("seed results reference unknown ward", "ward", ward)
			continue
		}
		for _, e := range entries {
			if !knownName(dir, ward, e.Name) {
				slog.Warn("seed results reference unknown candidate", "ward", ward, "name", e.Name)
			}
		}
	}

	slog.Info("tally initialized", "wards", len(dir.Wards()), "new_rows", created)
	return nil
}

func knownName(dir *directory.Directory, ward int, name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, models.NOTAName) {
		return true
	}
	for _, c := range dir.CandidatesInWard(ward) {
		if strings.EqualFold(c.FullName, name) {
			return true
		}
	}
	return false
}

// EnsureNOTA adds the NOTA row for a ward created at runtime
func EnsureNOTA(ctx context.Context, tally store.Tally, ward int) error {
	return tally.EnsureEntry(ctx, ward, models.TallyEntry{
		CandidateID: models.NOTACandidateID,
		Name:        models.NOTAName,
		Party:       models.NOTAParty,
	})
}

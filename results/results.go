// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"fmt"
	"io"
	"sort"

	"github.com/danielhkuo/wardvote/models"
	"github.com/gocarina/gocsv"
)

// Compute joins wards with their tally rows. Output follows the ward order;
// a ward with no tally has zero totals and no candidate rows. Shares are
// percentages with one decimal that sum to exactly 100.0 when votes were
// cast, and are all 0.0 otherwise.
func Compute(wards []models.Ward, tally models.Tally) []models.WardResult {
	out := make([]models.WardResult, 0, len(wards))
	for _, w := range wards {
		entries := tally[w.Number]

		total := 0
		votes := make([]int, len(entries))
		for i, e := range entries {
			total += e.Votes
			votes[i] = e.Votes
		}
		shares := apportion(votes, total)

		candidates := make([]models.CandidateShare, 0, len(entries))
		for i, e := range entries {
			candidates = append(candidates, models.CandidateShare{
				Name:         e.Name,
				Party:        e.Party,
				Votes:        e.Votes,
				SharePercent: shares[i],
			})
		}

		out = append(out, models.WardResult{
			WardNumber: w.Number,
			Population: w.Population,
			TotalVotes: total,
			Candidates: candidates,
		})
	}
	return out
}

// apportion splits 1000 tenths of a percent by largest remainder. Ties go
// to the earlier row.
func apportion(votes []int, total int) []float64 {
	shares := make([]float64, len(votes))
	if total == 0 {
		return shares
	}

	tenths := make([]int, len(votes))
	order := make([]int, len(votes))
	given := 0
	for i, v := range votes {
		tenths[i] = v * scale / total
		given += tenths[i]
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return votes[order[a]]*scale%total > votes[order[b]]*scale%total
	})
	for k := 0; k < scale-given; k++ {
		tenths[order[k]]++
	}

	for i, t := range tenths {
		shares[i] = float64(t) / 10
	}
	return shares
}

// scale is 100 percent in tenths
const scale = 1000

// csvRow is one flattened candidate line of the export
type csvRow struct {
	WardNumber   int     `csv:"ward_number"`
	Population   int     `csv:"population"`
	TotalVotes   int     `csv:"total_votes"`
	Candidate    string  `csv:"candidate"`
	Party        string  `csv:"party"`
	Votes        int     `csv:"votes"`
	SharePercent float64 `csv:"share_percent"`
}

// WriteCSV writes one row per candidate per ward. Wards without candidates
// get a single row with empty candidate columns.
func WriteCSV(w io.Writer, results []models.WardResult) error {
	var rows []csvRow
	for _, r := range results {
		if len(r.Candidates) == 0 {
			rows = append(rows, csvRow{WardNumber: r.WardNumber, Population: r.Population})
			continue
		}
		for _, c := range r.Candidates {
			rows = append(rows, csvRow{
				WardNumber:   r.WardNumber,
				Population:   r.Population,
				TotalVotes:   r.TotalVotes,
				Candidate:    c.Name,
				Party:        c.Party,
				Votes:        c.Votes,
				SharePercent: c.SharePercent,
			})
		}
	}
	if rows == nil {
		rows = []csvRow{}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write results csv: %w", err)
	}
	return nil
}

// Package board turns ranked aggregate rows into a leaderboard result
// ready for presentation: a single crowned winner plus an ordered
// runner-up list.
package board

import (
	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/internal/domain/types"
)

// Result is a built leaderboard. Winner is always rank 1; runner-up
// ranks start at 2 and increment with no gaps. Ranks are positional,
// tied totals do not share a rank.
type Result struct {
	Winner    types.Entry   `json:"winner"`
	RunnersUp []types.Entry `json:"runners_up"`
}

// Build constructs a Result from rows already ranked by the aggregation
// engine (total descending). An empty row set yields ErrNoData so that
// callers render an explicit "no data" message instead of an empty
// table. Pure function: no I/O, deterministic.
func Build(rows []model.AggregateRow) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrNoData
	}

	res := Result{
		Winner: types.Entry{
			Rank:     1,
			MemberID: rows[0].MemberID,
			Total:    rows[0].Total,
		},
		RunnersUp: make([]types.Entry, 0, len(rows)-1),
	}
	for i, row := range rows[1:] {
		res.RunnersUp = append(res.RunnersUp, types.Entry{
			Rank:     i + 2,
			MemberID: row.MemberID,
			Total:    row.Total,
		})
	}
	return res, nil
}

// Entries returns the winner and runners-up as one ordered slice.
func (r Result) Entries() []types.Entry {
	out := make([]types.Entry, 0, len(r.RunnersUp)+1)
	out = append(out, r.Winner)
	out = append(out, r.RunnersUp...)
	return out
}

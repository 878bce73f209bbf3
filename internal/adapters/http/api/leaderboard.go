// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tallysvc/tally/internal/adapters/store"
	"github.com/tallysvc/tally/internal/domain/board"
	"github.com/tallysvc/tally/internal/domain/window"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, period window.Period, guildID string, limit int) (board.Result, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// leaderboardResponse is the read shape for GET /leaderboard. Status
// is "ok" when a board was built and "empty" when the window held no
// events; an empty window is a valid answer, not an error.
type leaderboardResponse struct {
	Status    string  `json:"status"`
	Period    string  `json:"period"`
	Winner    *Entry  `json:"winner,omitempty"`
	RunnersUp []Entry `json:"runners_up,omitempty"`
}

// HandleGetLeaderboard handles GET /leaderboard?period=P&guild=G&limit=N
// requests. The limit is optional; omitting it falls back to the
// service default.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_period", opErr(op, err))
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", opErr(op, ErrBadRequest))
			return
		}
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", opErr(op, ErrBadRequest))
		return
	}

	res, err := h.deps.Leaderboard(r.Context(), period, r.URL.Query().Get("guild"), limit)
	switch {
	case errors.Is(err, board.ErrNoData):
		writeJSON(w, http.StatusOK, leaderboardResponse{
			Status: "empty",
			Period: string(period),
		})
		return
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", opErr(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", opErr(op, err))
		return
	}
	winner := res.Winner
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Status:    "ok",
		Period:    string(period),
		Winner:    &winner,
		RunnersUp: res.RunnersUp,
	})
}

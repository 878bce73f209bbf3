// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tallysvc/tally/internal/adapters/store"
	"github.com/tallysvc/tally/internal/domain/progress"
	"github.com/tallysvc/tally/internal/domain/window"
)

// ProgressDependencies defines the interface for progress operations.
type ProgressDependencies interface {
	Progress(ctx context.Context, period window.Period, guildID string, goal float64, segments int) (progress.Result, error)
}

// ProgressHandler handles goal progress requests.
type ProgressHandler struct {
	deps        ProgressDependencies
	defaultGoal float64
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies, defaultGoal float64) *ProgressHandler {
	return &ProgressHandler{
		deps:        deps,
		defaultGoal: defaultGoal,
	}
}

// progressResponse is the read shape for GET /progress.
type progressResponse struct {
	Period           string  `json:"period"`
	Total            int64   `json:"total"`
	Goal             float64 `json:"goal"`
	Percent          int     `json:"percent"`
	Bar              string  `json:"bar"`
	Status           string  `json:"status"`
	OvershootPercent int     `json:"overshoot_percent,omitempty"`
}

// HandleGetProgress handles GET
// /progress?period=P&guild=G&goal=N&segments=S requests. The goal and
// segment count are optional; omitting them falls back to the
// configured defaults.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progress"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_period", opErr(op, err))
		return
	}

	goal := h.defaultGoal
	if goalStr := r.URL.Query().Get("goal"); goalStr != "" {
		goal, err = strconv.ParseFloat(goalStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", opErr(op, ErrBadRequest))
			return
		}
	}

	segments := 0
	if segStr := r.URL.Query().Get("segments"); segStr != "" {
		segments, err = strconv.Atoi(segStr)
		if err != nil || segments < 1 || segments > progress.MaxSegments {
			writeError(w, http.StatusBadRequest, "invalid_segments", opErr(op, ErrBadRequest))
			return
		}
	}

	res, err := h.deps.Progress(r.Context(), period, r.URL.Query().Get("guild"), goal, segments)
	switch {
	case errors.Is(err, progress.ErrInvalidGoal):
		writeError(w, http.StatusBadRequest, "invalid_goal", err)
		return
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", opErr(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", opErr(op, err))
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		Period:           string(period),
		Total:            res.Total,
		Goal:             res.Goal,
		Percent:          res.Percent,
		Bar:              res.Bar,
		Status:           string(res.Status),
		OvershootPercent: res.OvershootPercent,
	})
}

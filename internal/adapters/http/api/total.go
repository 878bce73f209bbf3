// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tallysvc/tally/internal/adapters/store"
	"github.com/tallysvc/tally/internal/domain/window"
)

// TotalDependencies defines the interface for total operations.
type TotalDependencies interface {
	Total(ctx context.Context, period window.Period, guildID, memberID string) (int64, error)
}

// TotalHandler handles summed contribution requests.
type TotalHandler struct {
	deps TotalDependencies
}

// NewTotalHandler creates a new total handler.
func NewTotalHandler(deps TotalDependencies) *TotalHandler {
	return &TotalHandler{deps: deps}
}

// totalResponse is the read shape for GET /total.
type totalResponse struct {
	Period   string `json:"period"`
	MemberID string `json:"member_id,omitempty"`
	Total    int64  `json:"total"`
}

// HandleGetTotal handles GET /total?period=P&guild=G&member=M requests.
// Omitting member sums the whole guild; no matching events is a zero
// total, not an error.
func (h *TotalHandler) HandleGetTotal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_total"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_period", opErr(op, err))
		return
	}

	memberID := r.URL.Query().Get("member")
	total, err := h.deps.Total(r.Context(), period, r.URL.Query().Get("guild"), memberID)
	switch {
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", opErr(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", opErr(op, err))
		return
	}
	writeJSON(w, http.StatusOK, totalResponse{
		Period:   string(period),
		MemberID: memberID,
		Total:    total,
	})
}

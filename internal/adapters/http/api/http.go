// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tallysvc/tally/internal/domain/board"
	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/internal/domain/progress"
	"github.com/tallysvc/tally/internal/domain/types"
	"github.com/tallysvc/tally/internal/domain/window"
)

// Default handler configuration constants.
const (
	defaultMaxLimit    = 100
	defaultDefaultGoal = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SeenAndRecord atomically checks and records an event id. Returns
	// true when the id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases an event id so the client can retry it.
	Unrecord(ctx context.Context, id string)

	// Submit pushes an event for async processing. Returns false on
	// backpressure.
	Submit(ctx context.Context, e model.Event) bool

	// Read operations expose windowed aggregates.
	Leaderboard(ctx context.Context, period window.Period, guildID string, limit int) (board.Result, error)
	Progress(ctx context.Context, period window.Period, guildID string, goal float64, segments int) (progress.Result, error)
	Total(ctx context.Context, period window.Period, guildID, memberID string) (int64, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	leaderboardHandler *LeaderboardHandler
	progressHandler    *ProgressHandler
	totalHandler       *TotalHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps the leaderboard size a caller may request.
func WithMaxLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.leaderboardHandler.maxLimit = limit
		}
	}
}

// WithDefaultGoal sets the goal used when a progress request omits one.
func WithDefaultGoal(goal float64) Option {
	return func(s *Server) {
		if goal > 0 {
			s.progressHandler.defaultGoal = goal
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultMaxLimit),
		progressHandler:    NewProgressHandler(deps, defaultDefaultGoal),
		totalHandler:       NewTotalHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/progress", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("/total", MetricsMiddleware(s.totalHandler.HandleGetTotal, "total"))
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	EventID  string `json:"event_id"`
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
	TS       string `json:"ts"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.GuildID) == "":
		return errors.New("missing guild_id")
	case strings.TrimSpace(e.MemberID) == "":
		return errors.New("missing member_id")
	case e.Amount <= 0:
		return errors.New("amount must be positive")
	case strings.TrimSpace(e.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// opErr tags an error with the failing operation for logs and responses.
func opErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// parsePeriod reads the period query parameter, defaulting to today.
func parsePeriod(r *http.Request) (window.Period, error) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return window.Today, nil
	}
	return window.Parse(raw)
}

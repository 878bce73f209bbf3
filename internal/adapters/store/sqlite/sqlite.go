// Package sqlite provides a SQLite-backed event store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tallysvc/tally/internal/adapters/store"
	"github.com/tallysvc/tally/internal/domain/model"
	"github.com/tallysvc/tally/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id    TEXT PRIMARY KEY,
	guild_id    TEXT NOT NULL DEFAULT '',
	member_id   TEXT NOT NULL,
	amount      INTEGER NOT NULL,
	occurred_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events (occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_member ON events (member_id, occurred_at);
`

// Store persists contribution events in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite event store at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// Append inserts one event row.
func (s *Store) Append(ctx context.Context, e model.Event) error {
	if e.MemberID == "" {
		return fmt.Errorf("%w: missing member id", store.ErrInvalidEvent)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", store.ErrInvalidEvent)
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	}()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO events (event_id, guild_id, member_id, amount, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.EventID,
		e.GuildID,
		e.MemberID,
		e.Amount,
		toMillis(e.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("%w: insert event: %w", store.ErrUnavailable, err)
	}
	return nil
}

// SumRange returns the summed amount over the filtered range. The sum
// is pushed into SQL; no rows are materialized in Go.
func (s *Store) SumRange(ctx context.Context, f store.Filter) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	where, args := whereClause(f)
	var total int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM events`+where,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: sum query: %w", store.ErrUnavailable, err)
	}
	return total, nil
}

// GroupedSumRange returns per-member totals over the filtered range,
// unordered.
func (s *Store) GroupedSumRange(ctx context.Context, f store.Filter) ([]model.AggregateRow, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	where, args := whereClause(f)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT member_id, SUM(amount) FROM events`+where+` GROUP BY member_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: grouped sum query: %w", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []model.AggregateRow
	for rows.Next() {
		var r model.AggregateRow
		if err := rows.Scan(&r.MemberID, &r.Total); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", store.ErrUnavailable, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", store.ErrUnavailable, err)
	}
	return out, nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// whereClause builds the WHERE fragment for a filter. The window is
// half-open: occurred_at >= start AND occurred_at < end.
func whereClause(f store.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.GuildID != "" {
		conds = append(conds, "guild_id = ?")
		args = append(args, f.GuildID)
	}
	if f.MemberID != "" {
		conds = append(conds, "member_id = ?")
		args = append(args, f.MemberID)
	}
	if !f.Window.Start.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, toMillis(f.Window.Start))
	}
	if !f.Window.End.IsZero() {
		conds = append(conds, "occurred_at < ?")
		args = append(args, toMillis(f.Window.End))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

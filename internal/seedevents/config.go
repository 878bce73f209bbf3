package seedevents

import "time"

// Config holds configuration for the seed run.
type Config struct {
	BaseURL    string        // Base URL of the service
	GuildID    string        // Guild the seeded events belong to
	NumEvents  int           // Number of events to generate
	NumMembers int           // Number of distinct members to spread events over
	Limit      int           // Leaderboard size to fetch for verification
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for events
	Verbose    bool          // Enable verbose logging
}

// Event represents a contribution event to be submitted.
type Event struct {
	EventID  string `json:"event_id"`
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
	TS       string `json:"ts"`
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank     int    `json:"rank"`
	MemberID string `json:"member_id"`
	Total    int64  `json:"total"`
}

// LeaderboardResponse represents the response from GET /leaderboard.
type LeaderboardResponse struct {
	Period    string  `json:"period"`
	Winner    Entry   `json:"winner"`
	RunnersUp []Entry `json:"runners_up"`
}

// TotalResponse represents the response from GET /total.
type TotalResponse struct {
	Period   string `json:"period"`
	MemberID string `json:"member_id,omitempty"`
	Total    int64  `json:"total"`
}

// AckResponse represents the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds seed run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	BoardEntries     int
	GuildTotal       int64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

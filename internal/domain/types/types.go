// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int    `json:"rank"`
	MemberID string `json:"member_id"`
	Total    int64  `json:"total"`
}

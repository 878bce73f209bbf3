package seedevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
)

// fetchLeaderboard retrieves today's leaderboard for the seeded guild.
func fetchLeaderboard(ctx context.Context, config *Config, stats *Stats) (*LeaderboardResponse, error) {
	log.Printf("fetching top %d leaderboard entries...", config.Limit)

	client := newHTTPClient(config.Timeout)
	target := fmt.Sprintf("%s/leaderboard?period=today&guild=%s&limit=%d",
		config.BaseURL, url.QueryEscape(config.GuildID), config.Limit)

	resp, err := client.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var board LeaderboardResponse
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.BoardEntries = 1 + len(board.RunnersUp)
	log.Printf("retrieved %d leaderboard entries", stats.BoardEntries)

	return &board, nil
}

// fetchGuildTotal retrieves the summed guild total for today.
func fetchGuildTotal(ctx context.Context, config *Config, stats *Stats) (int64, error) {
	client := newHTTPClient(config.Timeout)
	target := config.BaseURL + "/total?period=today&guild=" + url.QueryEscape(config.GuildID)

	resp, err := client.Get(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var total TotalResponse
	if err := json.Unmarshal(body, &total); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.GuildTotal = total.Total
	return total.Total, nil
}

// verifyResults compares the reported standings with locally computed
// expectations. Amounts are integers, so totals must match exactly.
func verifyResults(ctx context.Context, config *Config, events []Event, board *LeaderboardResponse, guildTotal int64, stats *Stats) error {
	log.Println("verifying results...")

	expected := expectedTotals(events)

	var expectedGuildTotal int64
	for _, total := range expected {
		expectedGuildTotal += total
	}
	if guildTotal != expectedGuildTotal {
		return fmt.Errorf("guild total mismatch: reported %d, expected %d", guildTotal, expectedGuildTotal)
	}

	// Rank expectations locally the same way the service does: total
	// descending, member id ascending on ties.
	type memberTotal struct {
		memberID string
		total    int64
	}
	ranked := make([]memberTotal, 0, len(expected))
	for memberID, total := range expected {
		ranked = append(ranked, memberTotal{memberID: memberID, total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].memberID < ranked[j].memberID
	})

	if board.Winner.MemberID != ranked[0].memberID {
		return fmt.Errorf("winner mismatch: reported %s, expected %s",
			board.Winner.MemberID, ranked[0].memberID)
	}
	if board.Winner.Total != ranked[0].total {
		return fmt.Errorf("winner total mismatch: reported %d, expected %d",
			board.Winner.Total, ranked[0].total)
	}

	entries := append([]Entry{board.Winner}, board.RunnersUp...)
	for i := 1; i < len(entries); i++ {
		if entries[i].Total > entries[i-1].Total {
			return fmt.Errorf("leaderboard not properly sorted: entry %d outranks entry %d", i, i-1)
		}
		if entries[i].Rank != entries[i-1].Rank+1 {
			return fmt.Errorf("leaderboard ranks not sequential at entry %d", i)
		}
	}

	displayStandings(entries, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// displayStandings prints the reported leaderboard.
func displayStandings(entries []Entry, verbose bool) {
	log.Printf("top %d members:", len(entries))
	for _, entry := range entries {
		log.Printf("   %d. %s - total: %d", entry.Rank, entry.MemberID, entry.Total)
	}

	if verbose && len(entries) > 0 {
		var sum int64
		for _, entry := range entries {
			sum += entry.Total
		}
		log.Printf("board statistics: entries=%d boardSum=%s max=%d min=%d",
			len(entries), strconv.FormatInt(sum, 10), entries[0].Total, entries[len(entries)-1].Total)
	}
}

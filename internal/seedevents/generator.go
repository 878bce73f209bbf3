package seedevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/tallysvc/tally/pkg/logger"
)

// Constants for random number generation.
const (
	activityTierDivisor = 8
)

// Constants for amount generation ranges.
const (
	smallAmountMin  = 1
	smallAmountMax  = 10
	mediumAmountMin = 10
	mediumAmountMax = 50
	largeAmountMin  = 50
	largeAmountMax  = 200
)

// Constants for activity tier cases. Most members contribute small
// amounts; a few carry the board.
const (
	caseSmallContribution  = 0
	caseMediumContribution = 5
	caseLargeContribution  = 7
)

// randomInt returns a random int64 in [min, max) using crypto/rand.
func randomInt(min, max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max-min))
	return min + n.Int64()
}

// generateEvents creates the configured number of contribution events
// spread over a fixed member pool.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "generating contribution events",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("numMembers", config.NumMembers),
	)

	// A fixed member pool makes totals interesting: members accrue
	// multiple events each.
	memberIDs := make([]string, config.NumMembers)
	for i := range memberIDs {
		memberIDs[i] = "member-" + uuid.NewString()[:8]
	}

	events := make([]Event, config.NumEvents)
	for i := range events {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		default:
		}
		member := memberIDs[randomInt(0, int64(len(memberIDs)))]
		events[i] = generateSingleEvent(config.GuildID, member)
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generateSingleEvent creates one event for the given member. The
// timestamp is "now" so every event falls in today's window regardless
// of the rollover hour; anything older could land in yesterday and
// break verification.
func generateSingleEvent(guildID, memberID string) Event {
	occurredAt := time.Now().UTC()

	return Event{
		EventID:  uuid.NewString(),
		GuildID:  guildID,
		MemberID: memberID,
		Amount:   generateVariedAmount(),
		TS:       occurredAt.Format(time.RFC3339),
	}
}

// generateVariedAmount produces a skewed amount distribution.
func generateVariedAmount() int64 {
	tier := randomInt(0, activityTierDivisor)
	switch {
	case tier < caseMediumContribution:
		// Small contributions dominate
		return randomInt(smallAmountMin, smallAmountMax)
	case tier < caseLargeContribution:
		return randomInt(mediumAmountMin, mediumAmountMax)
	default:
		// Rare large contributions
		return randomInt(largeAmountMin, largeAmountMax)
	}
}

// expectedTotals computes the per-member sums the service should report.
func expectedTotals(events []Event) map[string]int64 {
	totals := make(map[string]int64)
	for _, e := range events {
		totals[e.MemberID] += e.Amount
	}
	return totals
}

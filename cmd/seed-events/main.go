package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/tallysvc/tally/internal/seedevents"
)

// Default configuration constants.
const (
	defaultNumEvents  = 10000
	defaultNumMembers = 100
	defaultLimit      = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		guildID    = flag.String("guild", "seed-guild", "Guild to seed events into")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		numMembers = flag.Int("members", defaultNumMembers, "Number of distinct members to spread events over")
		limit      = flag.Int("limit", defaultLimit, "Leaderboard size to fetch for verification")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated events (default: seed_events_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for seed output (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedevents.ShowHelp()
		return
	}

	if err := seedevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &seedevents.Config{
		BaseURL:    *baseURL,
		GuildID:    *guildID,
		NumEvents:  *numEvents,
		NumMembers: *numMembers,
		Limit:      *limit,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if err := seedevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		return
	}
}

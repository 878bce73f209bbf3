package seedevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tallysvc/tally/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Tally Seed Tool
===============

Generates contribution events, submits them concurrently, and verifies
the reported leaderboard against locally computed totals.

Usage:
  go run cmd/seed-events/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -guild string
        Guild to seed events into (default "seed-guild")
  -events int
        Number of events to generate and submit (default 10000)
  -members int
        Number of distinct members to spread events over (default 100)
  -limit int
        Leaderboard size to fetch for verification (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated events (default: seed_events_TIMESTAMP.json)
  -log string
        Log file for seed output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed-events/main.go

  # Seed with custom parameters
  go run cmd/seed-events/main.go -events 50000 -members 500 -workers 16

  # Seed a specific guild with verbose output
  go run cmd/seed-events/main.go -guild my-guild -verbose
`)
}

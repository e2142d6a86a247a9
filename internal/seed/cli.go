package seed

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/squadup/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the global logger, mirroring it into logFile when
// one is given. The returned close function releases the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile == "" {
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return file.Close, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `squadup seed
============

Creates a squad of players, plays random matches against a running service
and verifies the replayed scores, leaderboard, draft and squad stats.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -squad string
        Squad to seed (default: a new squad)
  -players int
        Number of players to create (default 16)
  -matches int
        Number of matches to play (default 40)
  -seed uint
        Random seed (default: current time)
  -workers int
        Concurrent player creations (default 4)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Also write logs to this file
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  # Seed a fresh squad reproducibly
  go run ./cmd/seed -seed 42

  # Larger run against another host
  go run ./cmd/seed -players 40 -matches 500 -url http://localhost:8080
`)
}
